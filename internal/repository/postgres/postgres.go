// Package postgres implements the repositories on top of a pgx pool.
package postgres

import (
	"squadmatch/server/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// NewStore wires every repository to pool
func NewStore(pool *pgxpool.Pool) repository.Store {
	return repository.Store{
		Groups:       NewGroupRepository(pool),
		Likes:        NewLikeRepository(pool),
		Matches:      NewMatchRepository(pool),
		Chats:        NewChatRepository(pool),
		JoinRequests: NewJoinRequestRepository(pool),
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == foreignKeyViolation
}
