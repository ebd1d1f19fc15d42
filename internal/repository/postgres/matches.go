package postgres

import (
	"context"

	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type MatchRepository struct {
	pool *pgxpool.Pool
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

const matchColumns = `id, group_id1, group_id2, matched_at, chat_id`

func scanMatch(row pgx.Row, m *models.Match) error {
	return row.Scan(&m.ID, &m.GroupID1, &m.GroupID2, &m.MatchedAt, &m.ChatID)
}

func (r *MatchRepository) CreateMatch(ctx context.Context, m *models.Match) (bool, error) {
	key := models.PairKey(m.GroupID1, m.GroupID2)

	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO matches (id, group_id1, group_id2, pair_key, matched_at, chat_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pair_key) DO NOTHING
		RETURNING id
	`, m.ID, m.GroupID1, m.GroupID2, key, m.MatchedAt, m.ChatID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, errors.Wrap(err, "matchRepo.CreateMatch.Insert")
	}

	err = scanMatch(r.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE pair_key = $1`, key), m)
	if err != nil {
		return false, errors.Wrap(err, "matchRepo.CreateMatch.SelectExisting")
	}
	return false, nil
}

func (r *MatchRepository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	return r.getOne(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
}

func (r *MatchRepository) FindMatch(ctx context.Context, groupA, groupB string) (*models.Match, error) {
	return r.getOne(ctx, `SELECT `+matchColumns+` FROM matches WHERE pair_key = $1`, models.PairKey(groupA, groupB))
}

func (r *MatchRepository) getOne(ctx context.Context, query, arg string) (*models.Match, error) {
	var m models.Match
	err := scanMatch(r.pool.QueryRow(ctx, query, arg), &m)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "matchRepo.getOne.Scan")
	}
	return &m, nil
}

func (r *MatchRepository) ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE group_id1 = $1 OR group_id2 = $1
		ORDER BY matched_at
	`, groupID)
	if err != nil {
		return nil, errors.Wrap(err, "matchRepo.ListMatchesForGroup.Query")
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, errors.Wrap(err, "matchRepo.ListMatchesForGroup.Scan")
		}
		matches = append(matches, m)
	}
	return matches, errors.Wrap(rows.Err(), "matchRepo.ListMatchesForGroup.Rows")
}

func (r *MatchRepository) SetChatID(ctx context.Context, matchID, chatID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE matches SET chat_id = $2 WHERE id = $1`, matchID, chatID)
	if err != nil {
		return errors.Wrap(err, "matchRepo.SetChatID.Exec")
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
