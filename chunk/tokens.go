package chunk

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the BPE encoding shared by the OpenAI embedding models.
const encodingName = "cl100k_base"

// TokenCounter counts tokens the way the embedding model will. When the BPE
// tables cannot be loaded it degrades to a character-based estimate instead
// of failing the ingestion.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter creates a lazy-initializing token counter.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Count returns the token count for text.
func (c *TokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			slog.Warn("token encoding unavailable, using estimate", "encoding", encodingName, "err", err)
			return
		}
		c.enc = enc
	})

	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// estimateTokens approximates the cl100k token count. English text averages
// roughly four characters per token.
func estimateTokens(text string) int {
	runes := utf8.RuneCountInString(text)
	if runes == 0 {
		return 0
	}
	est := runes / 4
	if est == 0 {
		est = 1
	}
	return est
}
