package enrich

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenBudget is the maximum number of tokens passed to any model call.
// Longer articles lose their tail; this is documented truncation, not an error.
const TokenBudget = 5000

const encodingName = "cl100k_base"

// Truncator bounds text to a fixed token budget before model calls.
type Truncator struct {
	encoding *tiktoken.Tiktoken
	budget   int
}

// NewTruncator loads the tokenizer. The budget defaults to TokenBudget.
func NewTruncator(budget int) (*Truncator, error) {
	if budget <= 0 {
		budget = TokenBudget
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return &Truncator{encoding: encoding, budget: budget}, nil
}

// Truncate returns the text cut to the token budget, decoded back to a string.
// Text within budget is returned unchanged.
func (t *Truncator) Truncate(text string) string {
	if text == "" {
		return ""
	}
	tokens := t.encoding.Encode(text, nil, nil)
	if len(tokens) <= t.budget {
		return text
	}
	return t.encoding.Decode(tokens[:t.budget])
}
