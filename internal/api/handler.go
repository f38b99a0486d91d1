package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/cexll/trajcomments/internal/commentstore"
	"github.com/cexll/trajcomments/internal/identity"
	"github.com/gorilla/mux"
)

// Handler translates the REST surface into store and resolver calls
type Handler struct {
	store    *commentstore.Store
	resolver *identity.Resolver
}

// NewHandler creates a new API handler
func NewHandler(store *commentstore.Store, resolver *identity.Resolver) *Handler {
	return &Handler{
		store:    store,
		resolver: resolver,
	}
}

// RegisterRoutes registers all comment and username routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/comments/{submission}/{trajectory}/{simulation}", h.handleList).Methods("GET")
	r.HandleFunc("/comments/{submission}/{trajectory}/{simulation}", h.handleCreate).Methods("POST")
	r.HandleFunc("/comments/{submission}/{trajectory}/{simulation}/{commentId}", h.handleEdit).Methods("PUT")
	r.HandleFunc("/comments/{submission}/{trajectory}/{simulation}/{commentId}", h.handleDelete).Methods("DELETE")
	r.HandleFunc("/username", h.handleGetUsername).Methods("GET")
	r.HandleFunc("/username", h.handleSetUsername).Methods("PUT")
}

// commentRequest is the body of comment create and edit requests
type commentRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// usernameRequest is the body of username override requests
type usernameRequest struct {
	Username string `json:"username"`
}

// usernameResponse mirrors the resolver outcome; Username is null when no
// identity is configured anywhere
type usernameResponse struct {
	Username *string         `json:"username"`
	Source   identity.Source `json:"source"`
	Message  string          `json:"message,omitempty"`
}

func keyFromVars(vars map[string]string) commentstore.Key {
	return commentstore.Key{
		Submission: vars["submission"],
		Trajectory: vars["trajectory"],
		Simulation: vars["simulation"],
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps store errors onto the response contract: validation
// failures are 400, missing comments 404, anything else a generic 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commentstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "Comment not found")
	case errors.Is(err, commentstore.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "Text is required")
	case errors.Is(err, commentstore.ErrUnsafeKey):
		writeError(w, http.StatusBadRequest, "Invalid path component")
	default:
		log.Printf("Comments API error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// handleList handles GET /comments/{submission}/{trajectory}/{simulation}
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	key := keyFromVars(mux.Vars(r))

	comments, err := h.store.ListAll(key)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
}

// handleCreate handles POST /comments/{submission}/{trajectory}/{simulation}
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	key := keyFromVars(mux.Vars(r))

	body, ok := decodeCommentRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.store.Append(key, body.Author, body.Text)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"comment": commentstore.AggregatedComment{CommentEntry: *entry, Author: body.Author},
	})
}

// handleEdit handles PUT /comments/{submission}/{trajectory}/{simulation}/{commentId}
func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := keyFromVars(vars)

	body, ok := decodeCommentRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.store.Edit(key, body.Author, vars["commentId"], body.Text)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comment": commentstore.AggregatedComment{CommentEntry: *entry, Author: body.Author},
	})
}

// handleDelete handles DELETE /comments/{submission}/{trajectory}/{simulation}/{commentId}
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := keyFromVars(vars)

	author := r.URL.Query().Get("author")
	if author == "" {
		writeError(w, http.StatusBadRequest, "Author query parameter is required")
		return
	}

	if err := h.store.Delete(key, author, vars["commentId"]); err != nil {
		writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetUsername handles GET /username
func (h *Handler) handleGetUsername(w http.ResponseWriter, r *http.Request) {
	res := h.resolver.Resolve()

	payload := usernameResponse{Source: res.Source, Message: res.Guidance}
	if res.Username != "" {
		payload.Username = &res.Username
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleSetUsername handles PUT /username
func (h *Handler) handleSetUsername(w http.ResponseWriter, r *http.Request) {
	var body usernameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.resolver.SetOverride(body.Username); err != nil {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	res := h.resolver.Resolve()
	writeJSON(w, http.StatusOK, map[string]any{
		"username": res.Username,
		"source":   res.Source,
	})
}

// decodeCommentRequest parses and validates a create/edit body. On failure it
// writes the 400 response and returns ok=false; validation happens before any
// storage access.
func decodeCommentRequest(w http.ResponseWriter, r *http.Request) (commentRequest, bool) {
	var body commentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return body, false
	}

	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return body, false
	}
	if strings.TrimSpace(body.Author) == "" {
		writeError(w, http.StatusBadRequest, "Author is required")
		return body, false
	}
	return body, true
}
