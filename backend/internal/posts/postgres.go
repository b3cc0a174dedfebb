package posts

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) List(ctx context.Context) ([]Post, error) {
	const query = `SELECT id, title, body, published FROM posts ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query posts")
	}

	posts, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Post])
	if err != nil {
		return nil, errors.Wrap(err, "scan posts")
	}
	return posts, nil
}

func (s *PgStore) Get(ctx context.Context, id int32) (Post, error) {
	const query = `SELECT id, title, body, published FROM posts WHERE id = $1`
	var p Post
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Title, &p.Body, &p.Published)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, errors.Wrapf(err, "get post %d", id)
	}
	return p, nil
}

func (s *PgStore) Create(ctx context.Context, np NewPost) (Post, error) {
	const query = `INSERT INTO posts (title, body) VALUES ($1, $2)
		RETURNING id, title, body, published`
	var p Post
	if err := s.pool.QueryRow(ctx, query, np.Title, np.Body).Scan(&p.ID, &p.Title, &p.Body, &p.Published); err != nil {
		return Post{}, errors.Wrap(err, "insert post")
	}
	return p, nil
}
