package posts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/penysho/load-test-demo/backend/internal/posts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu    sync.Mutex
	posts []posts.Post
	err   error
}

func (s *memStore) List(context.Context) ([]posts.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]posts.Post(nil), s.posts...), s.err
}

func (s *memStore) Get(_ context.Context, id int32) (posts.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return posts.Post{}, s.err
	}
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return posts.Post{}, posts.ErrNotFound
}

func (s *memStore) Create(_ context.Context, np posts.NewPost) (posts.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return posts.Post{}, s.err
	}
	p := posts.Post{ID: int32(len(s.posts) + 1), Title: np.Title, Body: np.Body}
	s.posts = append(s.posts, p)
	return p, nil
}

func serve(t *testing.T, store posts.Store, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	posts.NewHandler(store, zap.NewNop()).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()
	rec := serve(t, &memStore{}, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"ok"`, rec.Body.String())
}

func TestListPosts(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, &memStore{}, http.MethodGet, "/posts", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, &memStore{err: errors.New("connection refused")}, http.MethodGet, "/posts", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestGetPost(t *testing.T) {
	t.Parallel()
	store := &memStore{posts: []posts.Post{{ID: 7, Title: "hello", Body: "world", Published: true}}}

	rec := serve(t, store, http.MethodGet, "/posts/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"title":"hello","body":"world","published":true}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(t, store, http.MethodGet, "/posts/8", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, store, http.MethodGet, "/posts/abc", "").Code)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		body string
		code int
	}{
		{name: "valid", body: `{"title":"t","body":"b"}`, code: http.StatusOK},
		{name: "empty strings", body: `{"title":"","body":""}`, code: http.StatusOK},
		{name: "unknown field ignored", body: `{"title":"t","body":"b","author":"x"}`, code: http.StatusOK},
		{name: "missing body field", body: `{"title":"t"}`, code: http.StatusUnprocessableEntity},
		{name: "missing title field", body: `{"body":"b"}`, code: http.StatusUnprocessableEntity},
		{name: "null title", body: `{"title":null,"body":"b"}`, code: http.StatusUnprocessableEntity},
		{name: "wrong type", body: `{"title":1,"body":"b"}`, code: http.StatusUnprocessableEntity},
		{name: "invalid json", body: `{"title":`, code: http.StatusBadRequest},
		{name: "empty request", body: ``, code: http.StatusBadRequest},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &memStore{}
			rec := serve(t, store, http.MethodPost, "/posts", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}

			var got posts.Post
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, int32(1), got.ID)
			assert.False(t, got.Published)
			assert.Len(t, store.posts, 1)
		})
	}
}

func TestCreatePostNamesMissingField(t *testing.T) {
	t.Parallel()
	store := &memStore{}

	rec := serve(t, store, http.MethodPost, "/posts", `{"title":"t"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing field body")
	assert.Empty(t, store.posts)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	rec := serve(t, &memStore{}, http.MethodDelete, "/posts/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
