package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"a  b\n\nc\t d", "a b c d"},
		{"  leading and trailing  ", "leading and trailing"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "ñañ...", Truncate("ñañaña", 3))
	assert.Equal(t, "...", Truncate("abc", 0))
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "abc", Prefix("abcdef", 3))
	assert.Equal(t, "ab", Prefix("ab", 100))
	assert.Equal(t, "éé", Prefix("ééé", 2))
}

func TestPreview(t *testing.T) {
	long := "word "
	for i := 0; i < 20; i++ {
		long += "word "
	}
	got := Preview(long)
	assert.Len(t, []rune(got), 53)
	assert.Equal(t, "one two", Preview("one\n\ntwo"))
}
