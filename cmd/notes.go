package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/tpscan/internal/notes"
)

var notesFile string

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List the notes indexed in a document",
	Long:  "Scans a linearised document text file for note section headers and prints the note numbers found, plus which one looks like the related-party disclosure.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := os.ReadFile(notesFile)
		if err != nil {
			return eris.Wrapf(err, "read document %s", notesFile)
		}

		lib, err := cfg.LoadLibrary()
		if err != nil {
			return err
		}
		parser := notes.NewParser(lib)

		available := parser.AvailableNotes(string(text))
		if len(available) == 0 {
			fmt.Fprintln(os.Stderr, "No note sections found.")
			return nil
		}

		for _, n := range available {
			fmt.Printf("note %s\n", n)
		}

		if rp, ok := parser.FindRelatedPartyNote(string(text)); ok {
			fmt.Printf("\nrelated-party disclosure: note %s\n", rp.NoteNumber)
		}

		return nil
	},
}

func init() {
	notesCmd.Flags().StringVar(&notesFile, "file", "", "path to linearised document text (required)")
	_ = notesCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(notesCmd)
}
