package tts_test

import (
	"testing"

	"github.com/MrWong99/voicetutor/pkg/provider/tts"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello there", "hello there"},
		{"bold", "this is **very** important", "this is very important"},
		{"italic", "an *emphasized* word", "an emphasized word"},
		{"inline code", "call the `Start` method", "call the Start method"},
		{"header", "# Heading\nbody text", "Heading\nbody text"},
		{"nested header", "## Sub\n### Subsub", "Sub\nSubsub"},
		{"mixed", "**bold** and `code` and *italic*", "bold and code and italic"},
		{"whitespace", "  padded  ", "padded"},
		{"empty", "", ""},
		{"markup only", "****", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tts.CleanText(tc.in); got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
