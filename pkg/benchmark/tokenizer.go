package benchmark

import "strings"

// Tokenizer counts the tokens a generated text decodes into. Real token
// counts come from the model's own tokenizer; implementations of this
// interface adapt whichever tokenizer the caller has available.
type Tokenizer interface {
	CountTokens(text string) int
}

// WhitespaceTokenizer counts whitespace-separated words. It undercounts
// against subword tokenizers but needs no model assets.
type WhitespaceTokenizer struct{}

func (WhitespaceTokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// CharRatioTokenizer approximates a subword tokenizer by dividing the rune
// count by CharsPerToken (4 is the usual rule of thumb for English text).
type CharRatioTokenizer struct {
	CharsPerToken float64
}

func (t CharRatioTokenizer) CountTokens(text string) int {
	ratio := t.CharsPerToken
	if ratio <= 0 {
		ratio = 4
	}
	runes := len([]rune(text))
	if runes == 0 {
		return 0
	}
	tokens := int(float64(runes) / ratio)
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TokenizerFunc adapts a plain function to the Tokenizer interface
type TokenizerFunc func(text string) int

func (f TokenizerFunc) CountTokens(text string) int {
	return f(text)
}
