package postgres

import (
	"context"

	"squadmatch/server/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type LikeRepository struct {
	pool *pgxpool.Pool
}

func NewLikeRepository(pool *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

func (r *LikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO likes (id, from_group_id, to_group_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, like.ID, like.FromGroupID, like.ToGroupID, like.CreatedAt)
	return errors.Wrap(err, "likeRepo.CreateLike.Exec")
}

func (r *LikeRepository) HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM likes WHERE from_group_id = $1 AND to_group_id = $2)
	`, fromGroupID, toGroupID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "likeRepo.HasLike.Scan")
	}
	return exists, nil
}

func (r *LikeRepository) ListLikedBy(ctx context.Context, fromGroupID string) ([]string, error) {
	return r.listIDs(ctx, `
		SELECT to_group_id FROM likes WHERE from_group_id = $1
		GROUP BY to_group_id ORDER BY MIN(created_at)
	`, fromGroupID)
}

func (r *LikeRepository) ListLikersOf(ctx context.Context, toGroupID string) ([]string, error) {
	return r.listIDs(ctx, `
		SELECT from_group_id FROM likes WHERE to_group_id = $1
		GROUP BY from_group_id ORDER BY MIN(created_at)
	`, toGroupID)
}

func (r *LikeRepository) listIDs(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "likeRepo.listIDs.Query")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "likeRepo.listIDs.Scan")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "likeRepo.listIDs.Rows")
}
