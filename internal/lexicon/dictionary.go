// Package lexicon validates recognized tokens against a spelling dictionary
// and a numeric heuristic, and rebuilds cleaned text from the survivors.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/client9/gospell"
	"golang.org/x/text/cases"
)

// Dictionary is a read-only word membership oracle. Implementations must be
// safe for concurrent use once constructed.
type Dictionary interface {
	Contains(token string) bool
}

// Hunspell is a dictionary loaded from a hunspell affix file and word list.
type Hunspell struct {
	speller *gospell.GoSpell
}

// LoadHunspell loads a hunspell dictionary from an affix (.aff) file and a
// word list (.dic) file.
func LoadHunspell(affixPath, wordsPath string) (*Hunspell, error) {
	if affixPath == "" || wordsPath == "" {
		return nil, fmt.Errorf("dictionary requires both affix and word list paths")
	}
	speller, err := gospell.NewGoSpell(affixPath, wordsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary %s / %s: %w", affixPath, wordsPath, err)
	}
	return &Hunspell{speller: speller}, nil
}

// NewHunspell builds a hunspell dictionary from affix and word list readers.
func NewHunspell(affix, words io.Reader) (*Hunspell, error) {
	speller, err := gospell.NewGoSpellReader(affix, words)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}
	return &Hunspell{speller: speller}, nil
}

// Contains reports whether the speller accepts token.
func (h *Hunspell) Contains(token string) bool {
	if h == nil || h.speller == nil || token == "" {
		return false
	}
	return h.speller.Spell(token)
}

// WordSet is an in-memory case-insensitive word list.
type WordSet map[string]struct{}

// NewWordSet returns a WordSet containing words.
func NewWordSet(words ...string) WordSet {
	s := make(WordSet, len(words))
	for _, w := range words {
		s.add(w)
	}
	return s
}

// LoadWordList reads one word per line. Blank lines and lines starting with
// '#' are skipped.
func LoadWordList(path string) (WordSet, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided word list
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer func() { _ = f.Close() }()

	s := make(WordSet)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list %s: %w", path, err)
	}
	return s, nil
}

func (s WordSet) add(w string) {
	w = strings.TrimSpace(w)
	if w == "" {
		return
	}
	s[fold(w)] = struct{}{}
}

// Contains reports whether token is in the set, ignoring case.
func (s WordSet) Contains(token string) bool {
	if token == "" {
		return false
	}
	_, ok := s[fold(token)]
	return ok
}

// Len returns the number of distinct words.
func (s WordSet) Len() int { return len(s) }

// Union accepts a token if any member dictionary does.
type Union []Dictionary

// Contains reports whether any member dictionary contains token.
func (u Union) Contains(token string) bool {
	for _, d := range u {
		if d != nil && d.Contains(token) {
			return true
		}
	}
	return false
}

// fold lowercases for caseless matching. A Caser is stateful, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
