package blog

import "time"

// PageSize is the number of items per listing page.
const PageSize = 10

// Author writes posts.
type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorPatch carries the fields of a partial author update; nil fields
// are left unchanged.
type AuthorPatch struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
}

// Post is a single article.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostPatch carries the fields of a partial post update.
type PostPatch struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	AuthorID *int64  `json:"author_id"`
}

// ListOptions selects a page of results. Page is 1-based; values below 1
// mean the first page. Search matches as a case-insensitive substring.
type ListOptions struct {
	Page   int
	Search string
}

func (o ListOptions) offset() int {
	if o.Page < 1 {
		return 0
	}
	return (o.Page - 1) * PageSize
}
