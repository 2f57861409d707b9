package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
)

func (s *Storage) SavePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.savePost(ctx, s.db, post)
}

func (s *Storage) Post(ctx context.Context, id domain.PostId) (domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.post(ctx, s.db, id)
}

const postColumns = "id, user_id, kind, parent_id, body, hidden, created_at"

func scanPost(row interface{ Scan(...any) error }) (domain.Post, error) {
	var (
		p      domain.Post
		parent sql.NullInt64
	)
	if err := row.Scan(&p.Id, &p.UserId, &p.Kind, &parent, &p.Body, &p.Hidden, &p.CreatedAt); err != nil {
		return domain.Post{}, err
	}
	if parent.Valid {
		p.ParentId = &parent.Int64
	}
	return p, nil
}

func (s *Storage) savePost(ctx context.Context, q Querier, post domain.Post) (domain.Post, error) {
	saved, err := scanPost(q.QueryRowContext(ctx, `
		INSERT INTO posts (user_id, kind, parent_id, body, hidden)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+postColumns,
		post.UserId, post.Kind, post.ParentId, post.Body, post.Hidden,
	))
	if err != nil {
		return domain.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}
	return saved, nil
}

func (s *Storage) post(ctx context.Context, q Querier, id domain.PostId) (domain.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("Post not found")
		}
		return domain.Post{}, fmt.Errorf("failed to query post: %w", err)
	}
	return p, nil
}
