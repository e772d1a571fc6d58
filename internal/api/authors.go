package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/inkwell/internal/audit"
	"github.com/nerrad567/inkwell/internal/blog"
)

// authorRequest is the request body for POST /api/authors.
type authorRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// handleListAuthors returns one page of authors.
func (s *Server) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.authors.ListAuthors(r.Context(), listOptions(r))
	if err != nil {
		s.writeBlogError(w, "list authors", err)
		return
	}
	writeList(w, "authors", authors)
}

// handleGetAuthor returns a single author.
func (s *Server) handleGetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	author, err := s.authors.GetAuthor(r.Context(), id)
	if err != nil {
		s.writeBlogError(w, "get author", err)
		return
	}
	writeData(w, http.StatusOK, author)
}

// handleCreateAuthor stores a new author and notifies connected sockets.
func (s *Server) handleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	author := &blog.Author{Name: req.Name, Surname: req.Surname}
	if err := s.authors.CreateAuthor(r.Context(), author); err != nil {
		s.writeBlogError(w, "create author", err)
		return
	}

	s.notifier.Notify(msgAuthorCreated)
	s.auditMutation(r, audit.ActionCreate, "author", author.ID, nil)

	writeData(w, http.StatusCreated, author)
}

// handleUpdateAuthor applies a partial update.
func (s *Server) handleUpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch blog.AuthorPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if patch.Empty() {
		writeBadRequest(w, "no fields to update")
		return
	}

	author, err := s.authors.UpdateAuthor(r.Context(), id, patch)
	if err != nil {
		s.writeBlogError(w, "update author", err)
		return
	}

	s.notifier.Notify(msgAuthorUpdated)
	s.auditMutation(r, audit.ActionUpdate, "author", id, nil)

	writeData(w, http.StatusOK, author)
}

// handleDeleteAuthor removes an author together with their posts.
func (s *Server) handleDeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.authors.DeleteAuthor(r.Context(), id); err != nil {
		s.writeBlogError(w, "delete author", err)
		return
	}

	s.notifier.Notify(msgAuthorDeleted)
	s.auditMutation(r, audit.ActionDelete, "author", id, nil)

	writeJSON(w, http.StatusOK, map[string]string{"status": statusSuccess})
}
