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

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

const groupColumns = `g.id, g.name, g.bio, g.photo_url, g.created_by, g.is_active, g.created_at, g.updated_at`

var memberColumns = []string{"group_id", "user_id", "position", "name", "photo_url", "bio"}

func scanGroup(row pgx.Row, g *models.Group) error {
	return row.Scan(&g.ID, &g.Name, &g.Bio, &g.PhotoURL, &g.CreatedBy, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
}

func memberRows(groupID string, members []models.GroupMember) [][]any {
	rows := make([][]any, 0, len(members))
	for i, m := range members {
		rows = append(rows, []any{groupID, m.UserID, i, m.Name, m.PhotoURL, m.Bio})
	}
	return rows
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "groupRepo.CreateGroup.Begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, name, bio, photo_url, created_by, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, group.ID, group.Name, group.Bio, group.PhotoURL, group.CreatedBy, group.IsActive, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return errors.Wrap(err, "groupRepo.CreateGroup.InsertGroup")
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"group_members"}, memberColumns,
		pgx.CopyFromRows(memberRows(group.ID, group.Members))); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return errors.Wrap(err, "groupRepo.CreateGroup.CopyMembers")
	}

	return errors.Wrap(tx.Commit(ctx), "groupRepo.CreateGroup.Commit")
}

func (r *GroupRepository) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	err := scanGroup(r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`, id), &g)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "groupRepo.GetGroup.Scan")
	}

	if err := r.attachMembers(ctx, []*models.Group{&g}); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) ListActiveGroups(ctx context.Context) ([]models.Group, error) {
	return r.listGroups(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.is_active ORDER BY g.created_at, g.id`)
}

func (r *GroupRepository) ListGroupsByCreator(ctx context.Context, userID string) ([]models.Group, error) {
	return r.listGroups(ctx, `
		SELECT `+groupColumns+` FROM groups g
		WHERE g.is_active AND g.created_by = $1
		ORDER BY g.created_at, g.id
	`, userID)
}

func (r *GroupRepository) ListGroupsByMember(ctx context.Context, userID string) ([]models.Group, error) {
	return r.listGroups(ctx, `
		SELECT `+groupColumns+` FROM groups g
		INNER JOIN group_members gm ON gm.group_id = g.id
		WHERE g.is_active AND gm.user_id = $1
		ORDER BY g.created_at, g.id
	`, userID)
}

func (r *GroupRepository) listGroups(ctx context.Context, query string, args ...any) ([]models.Group, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "groupRepo.listGroups.Query")
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := scanGroup(rows, &g); err != nil {
			return nil, errors.Wrap(err, "groupRepo.listGroups.Scan")
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "groupRepo.listGroups.Rows")
	}

	ptrs := make([]*models.Group, len(groups))
	for i := range groups {
		ptrs[i] = &groups[i]
	}
	if err := r.attachMembers(ctx, ptrs); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepository) attachMembers(ctx context.Context, groups []*models.Group) error {
	if len(groups) == 0 {
		return nil
	}
	byID := make(map[string]*models.Group, len(groups))
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		g.Members = []models.GroupMember{}
		byID[g.ID] = g
		ids = append(ids, g.ID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT group_id, user_id, name, photo_url, bio
		FROM group_members
		WHERE group_id = ANY($1)
		ORDER BY group_id, position
	`, ids)
	if err != nil {
		return errors.Wrap(err, "groupRepo.attachMembers.Query")
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		var m models.GroupMember
		if err := rows.Scan(&groupID, &m.UserID, &m.Name, &m.PhotoURL, &m.Bio); err != nil {
			return errors.Wrap(err, "groupRepo.attachMembers.Scan")
		}
		g := byID[groupID]
		g.Members = append(g.Members, m)
	}
	return errors.Wrap(rows.Err(), "groupRepo.attachMembers.Rows")
}

func (r *GroupRepository) UpdateGroup(ctx context.Context, id string, patch models.GroupPatch, at time.Time) (*models.Group, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE groups SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			photo_url = COALESCE($4, photo_url),
			updated_at = $5
		WHERE id = $1
	`, id, patch.Name, patch.Bio, patch.PhotoURL, at)
	if err != nil {
		return nil, errors.Wrap(err, "groupRepo.UpdateGroup.Exec")
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}
	return r.GetGroup(ctx, id)
}

func (r *GroupRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE groups SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
	if err != nil {
		return errors.Wrap(err, "groupRepo.SetActive.Exec")
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// lockGroup serializes member-list writers on the group row
func lockGroup(ctx context.Context, tx pgx.Tx, groupID string, at time.Time) error {
	tag, err := tx.Exec(ctx, `UPDATE groups SET updated_at = $2 WHERE id = $1`, groupID, at)
	if err != nil {
		return errors.Wrap(err, "groupRepo.lockGroup.Exec")
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID string, member models.GroupMember, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "groupRepo.AddMember.Begin")
	}
	defer tx.Rollback(ctx)

	if err := lockGroup(ctx, tx, groupID, at); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, position, name, photo_url, bio)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0), $3, $4, $5
		FROM group_members WHERE group_id = $1
	`, groupID, member.UserID, member.Name, member.PhotoURL, member.Bio)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return errors.Wrap(err, "groupRepo.AddMember.Insert")
	}

	return errors.Wrap(tx.Commit(ctx), "groupRepo.AddMember.Commit")
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "groupRepo.RemoveMember.Begin")
	}
	defer tx.Rollback(ctx)

	if err := lockGroup(ctx, tx, groupID, at); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return errors.Wrap(err, "groupRepo.RemoveMember.Delete")
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return errors.Wrap(tx.Commit(ctx), "groupRepo.RemoveMember.Commit")
}

func (r *GroupRepository) ReplaceMembers(ctx context.Context, groupID string, members []models.GroupMember, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "groupRepo.ReplaceMembers.Begin")
	}
	defer tx.Rollback(ctx)

	if err := lockGroup(ctx, tx, groupID, at); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return errors.Wrap(err, "groupRepo.ReplaceMembers.Delete")
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"group_members"}, memberColumns,
		pgx.CopyFromRows(memberRows(groupID, members))); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return errors.Wrap(err, "groupRepo.ReplaceMembers.CopyMembers")
	}

	return errors.Wrap(tx.Commit(ctx), "groupRepo.ReplaceMembers.Commit")
}
