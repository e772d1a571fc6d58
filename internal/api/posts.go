package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/inkwell/internal/audit"
	"github.com/nerrad567/inkwell/internal/blog"
)

// postRequest is the request body for POST /api/posts.
type postRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID int64  `json:"author_id"`
}

// handleListPosts returns one page of posts.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.ListPosts(r.Context(), listOptions(r))
	if err != nil {
		s.writeBlogError(w, "list posts", err)
		return
	}
	writeList(w, "posts", posts)
}

// handleListPostsByAuthor returns every post written by {id}.
func (s *Server) handleListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	posts, err := s.posts.ListPostsByAuthor(r.Context(), id)
	if err != nil {
		s.writeBlogError(w, "list posts", err)
		return
	}
	writeList(w, "posts", posts)
}

// handleGetPost returns a single post.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	post, err := s.posts.GetPost(r.Context(), id)
	if err != nil {
		s.writeBlogError(w, "get post", err)
		return
	}
	writeData(w, http.StatusOK, post)
}

// handleCreatePost stores a new post and notifies connected sockets.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	post := &blog.Post{Title: req.Title, Content: req.Content, AuthorID: req.AuthorID}
	if err := s.posts.CreatePost(r.Context(), post); err != nil {
		s.writeBlogError(w, "create post", err)
		return
	}

	s.notifier.Notify(msgPostCreated)
	s.auditMutation(r, audit.ActionCreate, "post", post.ID, map[string]any{"author_id": post.AuthorID})

	writeData(w, http.StatusCreated, post)
}

// handleUpdatePost applies a partial update.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch blog.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if patch.Empty() {
		writeBadRequest(w, "no fields to update")
		return
	}

	post, err := s.posts.UpdatePost(r.Context(), id, patch)
	if err != nil {
		s.writeBlogError(w, "update post", err)
		return
	}

	s.notifier.Notify(msgPostUpdated)
	s.auditMutation(r, audit.ActionUpdate, "post", id, nil)

	writeData(w, http.StatusOK, post)
}

// handleDeletePost removes a post.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.posts.DeletePost(r.Context(), id); err != nil {
		s.writeBlogError(w, "delete post", err)
		return
	}

	s.notifier.Notify(msgPostDeleted)
	s.auditMutation(r, audit.ActionDelete, "post", id, nil)

	writeJSON(w, http.StatusOK, map[string]string{"status": statusSuccess})
}
