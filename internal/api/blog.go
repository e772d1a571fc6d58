package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/inkwell/internal/blog"
)

// Notification texts pushed to every connected socket after a mutation commits.
const (
	msgAuthorCreated = "Author has been created"
	msgAuthorUpdated = "Author has been updated"
	msgAuthorDeleted = "Author has been deleted"
	msgPostCreated   = "Post has been created"
	msgPostUpdated   = "Post has been updated"
	msgPostDeleted   = "Post has been deleted"
)

// parseID reads the {id} URL parameter, writing a 400 when it is not a
// positive integer.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeBadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// listOptions reads ?page= and ?search=. A missing or malformed page
// means the first page.
func listOptions(r *http.Request) blog.ListOptions {
	q := r.URL.Query()
	opts := blog.ListOptions{Page: 1, Search: q.Get("search")}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Page = n
		}
	}
	return opts
}

// writeBlogError maps storage errors onto HTTP responses.
func (s *Server) writeBlogError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, blog.ErrAuthorNotFound):
		writeNotFound(w, "author not found")
	case errors.Is(err, blog.ErrPostNotFound):
		writeNotFound(w, "post not found")
	case errors.Is(err, blog.ErrInvalidAuthor), errors.Is(err, blog.ErrInvalidPost):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error("blog operation failed", "op", op, "error", err)
		writeInternalError(w, "failed to "+op)
	}
}
