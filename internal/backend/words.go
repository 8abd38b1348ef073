package backend

import (
	"context"
	"strings"
)

// Word is a stored sensitive word or phrase
type Word struct {
	ID   int64  `json:"id"`
	Text string `json:"word"`
}

type wordRequest struct {
	Word string `json:"word"`
}

// ListWords returns all stored sensitive words in backend order
func (c *Client) ListWords(ctx context.Context) ([]Word, error) {
	var words []Word
	if err := c.get(ctx, "/words", &words); err != nil {
		return nil, err
	}
	if words == nil {
		words = []Word{}
	}
	return words, nil
}

// AddWord stores a new word and returns its id
func (c *Client) AddWord(ctx context.Context, word string) (int64, error) {
	var resp idResponse
	if err := c.do(ctx, "POST", "/words", wordRequest{Word: strings.TrimSpace(word)}, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateWord replaces the text of a stored word
func (c *Client) UpdateWord(ctx context.Context, id int64, word string) error {
	return c.do(ctx, "PUT", idPath("/words", id), wordRequest{Word: strings.TrimSpace(word)}, nil)
}

// RemoveWord deletes a stored word
func (c *Client) RemoveWord(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", idPath("/words", id), nil, nil)
}
