package blog

import "errors"

var (
	// ErrAuthorNotFound is returned when an author ID does not exist.
	ErrAuthorNotFound = errors.New("author not found")

	// ErrPostNotFound is returned when a post ID does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidAuthor is returned when author fields fail validation.
	ErrInvalidAuthor = errors.New("invalid author")

	// ErrInvalidPost is returned when post fields fail validation.
	ErrInvalidPost = errors.New("invalid post")
)
