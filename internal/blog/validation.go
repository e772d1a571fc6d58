package blog

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength    = 100
	maxTitleLength   = 200
	maxContentLength = 100_000
)

func validateText(field, value string, limit int, sentinel error) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s cannot be empty", sentinel, field)
	}
	if utf8.RuneCountInString(value) > limit {
		return fmt.Errorf("%w: %s exceeds %d characters", sentinel, field, limit)
	}
	return nil
}

// ValidateAuthor checks a complete author.
func ValidateAuthor(a *Author) error {
	if err := validateText("name", a.Name, maxNameLength, ErrInvalidAuthor); err != nil {
		return err
	}
	return validateText("surname", a.Surname, maxNameLength, ErrInvalidAuthor)
}

// ValidatePost checks a complete post.
func ValidatePost(p *Post) error {
	if err := validateText("title", p.Title, maxTitleLength, ErrInvalidPost); err != nil {
		return err
	}
	if err := validateText("content", p.Content, maxContentLength, ErrInvalidPost); err != nil {
		return err
	}
	if p.AuthorID <= 0 {
		return fmt.Errorf("%w: author_id is required", ErrInvalidPost)
	}
	return nil
}

// Apply merges the patch into a.
func (p AuthorPatch) Apply(a *Author) {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Surname != nil {
		a.Surname = strings.TrimSpace(*p.Surname)
	}
}

// Empty reports whether the patch changes nothing.
func (p AuthorPatch) Empty() bool {
	return p.Name == nil && p.Surname == nil
}

// Apply merges the patch into post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.AuthorID != nil {
		post.AuthorID = *p.AuthorID
	}
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.AuthorID == nil
}
