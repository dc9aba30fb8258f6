package lemma

import "errors"

// ErrUnsupportedCharacter is returned by an Analyzer for words containing
// characters outside its alphabet.
var ErrUnsupportedCharacter = errors.New("unsupported character")
