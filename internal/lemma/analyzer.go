package lemma

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// Tag is the grammatical class reported by an Analyzer.
type Tag string

const (
	// TagPreposition marks prepositions ("in", "на").
	TagPreposition Tag = "PREP"

	// TagConjunction marks conjunctions ("and", "или").
	TagConjunction Tag = "CONJ"

	// TagInterjection marks interjections ("oh", "увы").
	TagInterjection Tag = "INTJ"

	// TagLexical marks every other word.
	TagLexical Tag = "LEX"
)

// IsFunctional reports whether words with this tag are excluded from the index.
func (t Tag) IsFunctional() bool {
	return t == TagPreposition || t == TagConjunction || t == TagInterjection
}

// Analyzer is a morphological analyzer for one alphabet.
type Analyzer interface {
	// NormalForms returns the normal forms of a lowercase word. The first
	// element is the canonical one.
	NormalForms(word string) ([]string, error)

	// GrammarTag returns the grammatical class of a lowercase word.
	GrammarTag(word string) (Tag, error)
}

// snowballAnalyzer implements Analyzer with a Snowball stemmer and a table
// of closed-class words.
type snowballAnalyzer struct {
	language   string
	alphabet   func(r rune) bool
	normalize  func(word string) string
	functional map[string]Tag
}

// NewEnglishAnalyzer returns an Analyzer for lowercase Latin words.
func NewEnglishAnalyzer() Analyzer {
	return &snowballAnalyzer{
		language:   "english",
		alphabet:   isLatin,
		normalize:  func(word string) string { return word },
		functional: englishFunctionWords,
	}
}

// NewRussianAnalyzer returns an Analyzer for lowercase Cyrillic words.
// "ё" is folded into "е" before stemming.
func NewRussianAnalyzer() Analyzer {
	return &snowballAnalyzer{
		language:   "russian",
		alphabet:   isCyrillic,
		normalize:  func(word string) string { return strings.ReplaceAll(word, "ё", "е") },
		functional: russianFunctionWords,
	}
}

func (a *snowballAnalyzer) check(word string) error {
	if word == "" {
		return fmt.Errorf("%s: empty word: %w", a.language, ErrUnsupportedCharacter)
	}
	for _, r := range word {
		if !a.alphabet(r) {
			return fmt.Errorf("%s: %q in %q: %w", a.language, r, word, ErrUnsupportedCharacter)
		}
	}
	return nil
}

func (a *snowballAnalyzer) NormalForms(word string) ([]string, error) {
	if err := a.check(word); err != nil {
		return nil, err
	}

	normalized := a.normalize(word)
	stem, err := snowball.Stem(normalized, a.language, true)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to stem %q: %w", a.language, word, err)
	}
	if stem == "" {
		stem = normalized
	}
	return []string{stem}, nil
}

func (a *snowballAnalyzer) GrammarTag(word string) (Tag, error) {
	if err := a.check(word); err != nil {
		return "", err
	}
	if tag, ok := a.functional[a.normalize(word)]; ok {
		return tag, nil
	}
	return TagLexical, nil
}

func isLatin(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isCyrillic(r rune) bool {
	return (r >= 'а' && r <= 'я') || r == 'ё'
}
