package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	t.Run("short text stays in one chunk", func(t *testing.T) {
		chunks := SplitText("hello world", 100, 20)
		if len(chunks) != 1 || chunks[0] != "hello world" {
			t.Errorf("chunks = %v, want the input unchanged", chunks)
		}
	})

	t.Run("long text is chunked with overlap", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 50) // 500 chars
		chunks := SplitText(text, 100, 20)

		if len(chunks) < 5 {
			t.Fatalf("chunks = %d, want at least 5", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > 100 {
				t.Errorf("chunk %d length = %d, want <= 100", i, len(c))
			}
		}
		// Consecutive chunks share the overlap region
		tail := chunks[0][len(chunks[0])-20:]
		if !strings.HasPrefix(chunks[1], tail) {
			t.Errorf("chunk 1 does not start with the overlap of chunk 0")
		}
	})

	t.Run("no content is lost", func(t *testing.T) {
		text := strings.Repeat("x", 350)
		chunks := SplitText(text, 100, 20)

		last := chunks[len(chunks)-1]
		if !strings.HasSuffix(text, last) {
			t.Error("final chunk must reach the end of the input")
		}
	})

	t.Run("overlap larger than chunk size falls back to plain stepping", func(t *testing.T) {
		text := strings.Repeat("y", 250)
		chunks := SplitText(text, 100, 150)

		if len(chunks) != 3 {
			t.Errorf("chunks = %d, want 3", len(chunks))
		}
	})
}
