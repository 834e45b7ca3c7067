package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines_NormalisesCRLF(t *testing.T) {
	lines := SplitLines("a\r\nb\nc")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestPageOf_FormFeedsAuthoritative(t *testing.T) {
	lines := []string{"cover", "\fpage two", "body", "\fpage three", "body"}

	assert.Equal(t, 1, PageOf(lines, 0))
	assert.Equal(t, 2, PageOf(lines, 2))
	assert.Equal(t, 3, PageOf(lines, 4))
}

func TestPageOf_HeuristicWithoutFeeds(t *testing.T) {
	lines := make([]string, 200)
	assert.Equal(t, 1, PageOf(lines, 10))
	assert.Equal(t, 2, PageOf(lines, 75))
	assert.Equal(t, 1, PageOf(lines, -1))
}

func TestContextAround(t *testing.T) {
	lines := []string{"first", "", "  second  ", "third"}
	assert.Equal(t, "first | second | third", ContextAround(lines, -2, 10))
	assert.Equal(t, "second", ContextAround(lines, 1, 2))
}

func TestContextAround_Empty(t *testing.T) {
	assert.Empty(t, ContextAround([]string{"", "  "}, 0, 1))
	assert.False(t, strings.Contains(ContextAround([]string{"a", "b"}, 0, 1), "||"))
}
