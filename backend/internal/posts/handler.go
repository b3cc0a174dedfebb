package posts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler routes the posts API and the health check.
type Handler struct {
	mux   *http.ServeMux
	store Store
	logs  *zap.Logger
}

func NewHandler(store Store, logs *zap.Logger) *Handler {
	h := &Handler{mux: http.NewServeMux(), store: store, logs: logs}
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /posts", h.handleList)
	h.mux.HandleFunc("POST /posts", h.handleCreate)
	h.mux.HandleFunc("GET /posts/{id}", h.handleGet)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "ok")
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "post id must be an integer")
		return
	}

	post, err := h.store.Get(r.Context(), int32(id))
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case err != nil:
		h.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, post)
	}
}

// createRequest uses pointers so an absent field can be told apart from an
// empty string.
type createRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// decodeCreate mirrors a typed JSON extractor: malformed JSON is 400, JSON
// of the wrong shape is 422. Unknown fields are ignored.
func decodeCreate(w http.ResponseWriter, r *http.Request) (NewPost, int, string) {
	var req createRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)

	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.As(err, &sizeErr):
		return NewPost{}, http.StatusRequestEntityTooLarge, "request body too large"
	case errors.As(err, &typeErr):
		return NewPost{}, http.StatusUnprocessableEntity, "invalid type for field " + typeErr.Field
	case err != nil:
		return NewPost{}, http.StatusBadRequest, "invalid JSON body"
	case req.Title == nil:
		return NewPost{}, http.StatusUnprocessableEntity, "missing field title"
	case req.Body == nil:
		return NewPost{}, http.StatusUnprocessableEntity, "missing field body"
	}
	return NewPost{Title: *req.Title, Body: *req.Body}, http.StatusOK, ""
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	np, status, msg := decodeCreate(w, r)
	if status != http.StatusOK {
		writeError(w, status, msg)
		return
	}

	post, err := h.store.Create(r.Context(), np)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logs.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
