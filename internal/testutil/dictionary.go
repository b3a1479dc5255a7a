package testutil

import (
	"fmt"
	"strings"
	"testing"
)

// MinimalAffix is an affix file without any rules.
const MinimalAffix = "SET UTF-8\n"

// CommonWords is a small English vocabulary for cascade and pipeline tests.
var CommonWords = []string{
	"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
	"page", "text", "scanned", "document", "of", "and", "a",
}

// HunspellDic renders words as a hunspell .dic file.
func HunspellDic(words ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", len(words))
	for _, w := range words {
		b.WriteString(w)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteHunspell writes an affix/dic pair into dir and returns their paths.
func WriteHunspell(t *testing.T, dir string, words ...string) (affixPath, wordsPath string) {
	t.Helper()

	affixPath = WriteFile(t, dir, "test.aff", MinimalAffix)
	wordsPath = WriteFile(t, dir, "test.dic", HunspellDic(words...))
	return affixPath, wordsPath
}
