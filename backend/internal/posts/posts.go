// Package posts serves the posts API of the load test target.
package posts

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by a Store when no post has the requested id.
var ErrNotFound = errors.New("post not found")

type Post struct {
	ID        int32  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

type NewPost struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Store persists posts.
type Store interface {
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, id int32) (Post, error)
	Create(ctx context.Context, p NewPost) (Post, error)
}
