package tokens

import (
	"github.com/weaviate/tiktoken-go"
)

// Estimator counts prompt tokens for context truncation. The exact
// counting method is pluggable: the tiktoken estimator is exact for
// OpenAI-style encodings, the heuristic one is a cheap approximation
// used when the encoding files are unavailable.
type Estimator interface {
	Count(text string) int
}

type tiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken builds an estimator over the cl100k_base encoding.
func NewTiktoken() (Estimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &tiktokenEstimator{enc: enc}, nil
}

func (e *tiktokenEstimator) Count(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

type heuristicEstimator struct{}

// NewHeuristic approximates one token per four bytes, the common rule of
// thumb for English text.
func NewHeuristic() Estimator { return heuristicEstimator{} }

func (heuristicEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// Default returns the tiktoken estimator, falling back to the heuristic
// when the encoding cannot be loaded.
func Default() Estimator {
	if e, err := NewTiktoken(); err == nil {
		return e
	}
	return NewHeuristic()
}
