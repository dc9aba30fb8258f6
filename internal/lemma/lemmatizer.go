package lemma

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// wordSeparator splits lowercase text into candidate words.
	wordSeparator = regexp.MustCompile(`[^a-zа-яё]+`)

	// latinWord selects the English analyzer.
	latinWord = regexp.MustCompile(`^[a-z]+$`)
)

// skippedElements hold text that is never shown to readers.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Lemmatizer maps text to lemma occurrence counts.
// It is safe for concurrent use.
type Lemmatizer struct {
	english Analyzer
	russian Analyzer
	logger  *slog.Logger
}

// Option configures a Lemmatizer.
type Option func(*Lemmatizer)

// WithLogger sets the logger used to report skipped words.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lemmatizer) {
		l.logger = logger
	}
}

// WithAnalyzers replaces the English and Russian analyzers.
func WithAnalyzers(english, russian Analyzer) Option {
	return func(l *Lemmatizer) {
		l.english = english
		l.russian = russian
	}
}

// New creates a Lemmatizer backed by the Snowball analyzers.
func New(opts ...Option) *Lemmatizer {
	l := &Lemmatizer{
		english: NewEnglishAnalyzer(),
		russian: NewRussianAnalyzer(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}

	return l
}

// LemmasFrom returns how often each lemma occurs in text. HTML markup is
// removed first; plain text passes through unchanged.
func (l *Lemmatizer) LemmasFrom(text string) map[string]int {
	counts := make(map[string]int)
	for _, word := range Words(StripHTML(text)) {
		if lemma, ok := l.lemmaOf(word); ok {
			counts[lemma]++
		}
	}
	return counts
}

// LemmaOf returns the canonical lemma of a single word, or "" when the word
// is not indexable (functional, foreign script or empty).
func (l *Lemmatizer) LemmaOf(word string) string {
	words := Words(word)
	if len(words) != 1 {
		return ""
	}
	lemma, _ := l.lemmaOf(words[0])
	return lemma
}

func (l *Lemmatizer) lemmaOf(word string) (string, bool) {
	analyzer := l.russian
	if latinWord.MatchString(word) {
		analyzer = l.english
	}

	tag, err := analyzer.GrammarTag(word)
	if err != nil {
		l.skip(word, err)
		return "", false
	}
	if tag.IsFunctional() {
		return "", false
	}

	forms, err := analyzer.NormalForms(word)
	if err != nil {
		l.skip(word, err)
		return "", false
	}
	if len(forms) == 0 || forms[0] == "" {
		return "", false
	}
	return forms[0], true
}

func (l *Lemmatizer) skip(word string, err error) {
	if errors.Is(err, ErrUnsupportedCharacter) {
		l.logger.Debug("skipping word", "word", word, "error", err)
		return
	}
	l.logger.Warn("failed to analyze word", "word", word, "error", err)
}

// Words lowercases text and splits it into Latin and Cyrillic words.
// Tokens that do not start with a supported lowercase letter are dropped.
func Words(text string) []string {
	// cases.Caser keeps state between calls, so each call gets its own.
	lower := cases.Lower(language.Und).String(text)

	parts := wordSeparator.Split(lower, -1)
	words := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(p)
		if !isLatin(r) && !isCyrillic(r) {
			continue
		}
		words = append(words, p)
	}
	return words
}

// StripHTML returns the visible text of an HTML fragment with a space
// between adjacent text nodes. Entities are decoded.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is kept.
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}
