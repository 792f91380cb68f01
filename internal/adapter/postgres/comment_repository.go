package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
)

// commentColumns must match the Scan order in scanComment. Author fields
// are joined from accounts so the feed reflects current usernames and avatars.
const commentColumns = `c.id, c.account_id, a.username, a.avatar_url, c.body, c.created_at`

// CommentRepo implements domain.CommentRepository backed by PostgreSQL.
type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.AccountID, &c.AuthorUsername, &c.AuthorAvatarURL, &c.Body, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) Create(ctx context.Context, accountID uuid.UUID, body string) (*domain.Comment, error) {
	query := `WITH inserted AS (
	              INSERT INTO comments (account_id, body) VALUES ($1, $2)
	              RETURNING id, account_id, body, created_at
	          )
	          SELECT ` + commentColumns + `
	          FROM inserted c JOIN accounts a ON a.id = c.account_id`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, accountID, body))
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepo) ListNewestFirst(ctx context.Context, limit int) ([]domain.Comment, error) {
	query := `SELECT ` + commentColumns + `
	          FROM comments c JOIN accounts a ON a.id = c.account_id
	          ORDER BY c.id DESC
	          LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comment rows: %w", err)
	}
	return comments, nil
}

func (r *CommentRepo) GetByID(ctx context.Context, commentID int64) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + `
	          FROM comments c JOIN accounts a ON a.id = c.account_id
	          WHERE c.id = $1`

	comment, err := scanComment(r.pool.QueryRow(ctx, query, commentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return comment, nil
}

func (r *CommentRepo) Delete(ctx context.Context, commentID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}
