package catalog

import "errors"

// Book is a catalog record. IDs are small sequential integers assigned by
// the store at insert time.
type Book struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
}

var (
	ErrNotFound     = errors.New("catalog: book not found")
	ErrInvalidInput = errors.New("catalog: invalid input")
)
