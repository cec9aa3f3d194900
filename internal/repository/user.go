package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"inkstream/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, full_name, avatar_url, total_posts, total_reads, created_at
		FROM users WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// IncrementTotalPosts adjusts the author's published-post counter.
func (r *userRepository) IncrementTotalPosts(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	_, err := ext(r.db, tx).ExecContext(ctx,
		`UPDATE users SET total_posts = GREATEST(total_posts + $1, 0) WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("increment total posts: %w", err)
	}
	return nil
}

// IncrementTotalReads adjusts the author's aggregate read counter.
func (r *userRepository) IncrementTotalReads(ctx context.Context, userID int64, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET total_reads = GREATEST(total_reads + $1, 0) WHERE id = $2`, delta, userID)
	if err != nil {
		return fmt.Errorf("increment total reads: %w", err)
	}
	return nil
}
