package postgres

import (
	"context"
	"time"

	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type JoinRequestRepository struct {
	pool *pgxpool.Pool
}

func NewJoinRequestRepository(pool *pgxpool.Pool) *JoinRequestRepository {
	return &JoinRequestRepository{pool: pool}
}

const requestColumns = `id, group_id, user_id, user_name, user_photo_url, user_email, status, created_at, updated_at`

func scanRequest(row pgx.Row, req *models.JoinRequest) error {
	return row.Scan(&req.ID, &req.GroupID, &req.UserID, &req.UserName, &req.UserPhotoURL,
		&req.UserEmail, &req.Status, &req.CreatedAt, &req.UpdatedAt)
}

func (r *JoinRequestRepository) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO join_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.GroupID, req.UserID, req.UserName, req.UserPhotoURL, req.UserEmail,
		req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return errors.Wrap(err, "joinRequestRepo.CreateJoinRequest.Exec")
	}
	return nil
}

func (r *JoinRequestRepository) GetJoinRequest(ctx context.Context, id string) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM join_requests WHERE id = $1`, id), &req)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "joinRequestRepo.GetJoinRequest.Scan")
	}
	return &req, nil
}

func (r *JoinRequestRepository) ListByGroup(ctx context.Context, groupID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	return r.list(ctx, "group_id", groupID, status)
}

func (r *JoinRequestRepository) ListByUser(ctx context.Context, userID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	return r.list(ctx, "user_id", userID, status)
}

// list filters on column, which is always one of the fixed names above
func (r *JoinRequestRepository) list(ctx context.Context, column, value string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM join_requests
		WHERE `+column+` = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, value, string(status))
	if err != nil {
		return nil, errors.Wrap(err, "joinRequestRepo.list.Query")
	}
	defer rows.Close()

	requests := []models.JoinRequest{}
	for rows.Next() {
		var req models.JoinRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, errors.Wrap(err, "joinRequestRepo.list.Scan")
		}
		requests = append(requests, req)
	}
	return requests, errors.Wrap(rows.Err(), "joinRequestRepo.list.Rows")
}

func (r *JoinRequestRepository) HasPending(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM join_requests WHERE group_id = $1 AND user_id = $2 AND status = 'pending')
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "joinRequestRepo.HasPending.Scan")
	}
	return exists, nil
}

func (r *JoinRequestRepository) TransitionStatus(ctx context.Context, id string, from, to models.JoinRequestStatus, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE join_requests SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), at)
	if err != nil {
		return errors.Wrap(err, "joinRequestRepo.TransitionStatus.Exec")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM join_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "joinRequestRepo.TransitionStatus.Exists")
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}
