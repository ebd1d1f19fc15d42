package postgres

import (
	"context"

	"squadmatch/server/internal/models"
	"squadmatch/server/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

const roomColumns = `r.id, r.match_id, r.group_id1, r.group_id2, r.group1_name, r.group2_name,
	r.created_at, r.last_message_at, r.last_message`

func scanRoom(row pgx.Row, room *models.ChatRoom) error {
	return row.Scan(&room.ID, &room.MatchID, &room.GroupID1, &room.GroupID2, &room.Group1Name,
		&room.Group2Name, &room.CreatedAt, &room.LastMessageAt, &room.LastMessage)
}

func (r *ChatRepository) CreateChatRoom(ctx context.Context, room *models.ChatRoom) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "chatRepo.CreateChatRoom.Begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_rooms (id, match_id, group_id1, group_id2, group1_name, group2_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, room.ID, room.MatchID, room.GroupID1, room.GroupID2, room.Group1Name, room.Group2Name, room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return errors.Wrap(err, "chatRepo.CreateChatRoom.InsertRoom")
	}

	rows := make([][]any, 0, len(room.MemberIDs))
	for i, userID := range room.MemberIDs {
		rows = append(rows, []any{room.ID, userID, i})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"chat_room_members"},
		[]string{"chat_room_id", "user_id", "position"}, pgx.CopyFromRows(rows)); err != nil {
		return errors.Wrap(err, "chatRepo.CreateChatRoom.CopyMembers")
	}

	return errors.Wrap(tx.Commit(ctx), "chatRepo.CreateChatRoom.Commit")
}

func (r *ChatRepository) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	return r.getOne(ctx, `SELECT `+roomColumns+` FROM chat_rooms r WHERE r.id = $1`, id)
}

func (r *ChatRepository) GetChatRoomByMatch(ctx context.Context, matchID string) (*models.ChatRoom, error) {
	return r.getOne(ctx, `SELECT `+roomColumns+` FROM chat_rooms r WHERE r.match_id = $1`, matchID)
}

func (r *ChatRepository) getOne(ctx context.Context, query, arg string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := scanRoom(r.pool.QueryRow(ctx, query, arg), &room)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "chatRepo.getOne.Scan")
	}
	if err := r.attachMembers(ctx, []*models.ChatRoom{&room}); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *ChatRepository) ListChatRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+roomColumns+` FROM chat_rooms r
		INNER JOIN chat_room_members m ON m.chat_room_id = r.id
		WHERE m.user_id = $1
		ORDER BY COALESCE(r.last_message_at, r.created_at) DESC
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "chatRepo.ListChatRoomsForUser.Query")
	}
	defer rows.Close()

	rooms := []models.ChatRoom{}
	for rows.Next() {
		var room models.ChatRoom
		if err := scanRoom(rows, &room); err != nil {
			return nil, errors.Wrap(err, "chatRepo.ListChatRoomsForUser.Scan")
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "chatRepo.ListChatRoomsForUser.Rows")
	}

	ptrs := make([]*models.ChatRoom, len(rooms))
	for i := range rooms {
		ptrs[i] = &rooms[i]
	}
	if err := r.attachMembers(ctx, ptrs); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *ChatRepository) attachMembers(ctx context.Context, rooms []*models.ChatRoom) error {
	if len(rooms) == 0 {
		return nil
	}
	byID := make(map[string]*models.ChatRoom, len(rooms))
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		room.MemberIDs = []string{}
		byID[room.ID] = room
		ids = append(ids, room.ID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT chat_room_id, user_id FROM chat_room_members
		WHERE chat_room_id = ANY($1)
		ORDER BY chat_room_id, position
	`, ids)
	if err != nil {
		return errors.Wrap(err, "chatRepo.attachMembers.Query")
	}
	defer rows.Close()

	for rows.Next() {
		var roomID, userID string
		if err := rows.Scan(&roomID, &userID); err != nil {
			return errors.Wrap(err, "chatRepo.attachMembers.Scan")
		}
		room := byID[roomID]
		room.MemberIDs = append(room.MemberIDs, userID)
	}
	return errors.Wrap(rows.Err(), "chatRepo.attachMembers.Rows")
}

func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "chatRepo.CreateMessage.Begin")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE chat_rooms SET last_message_at = $2, last_message = $3 WHERE id = $1
	`, msg.ChatRoomID, msg.CreatedAt, msg.Message)
	if err != nil {
		return errors.Wrap(err, "chatRepo.CreateMessage.UpdateRoom")
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, chat_room_id, sender_id, sender_name, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.ChatRoomID, msg.SenderID, msg.SenderName, msg.Message, msg.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return errors.Wrap(err, "chatRepo.CreateMessage.Insert")
	}

	return errors.Wrap(tx.Commit(ctx), "chatRepo.CreateMessage.Commit")
}

func (r *ChatRepository) ListMessages(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, chat_room_id, sender_id, sender_name, message, created_at FROM (
			SELECT * FROM messages
			WHERE chat_room_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) latest
		ORDER BY created_at, seq
	`, roomID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "chatRepo.ListMessages.Query")
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatRoomID, &m.SenderID, &m.SenderName, &m.Message, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "chatRepo.ListMessages.Scan")
		}
		messages = append(messages, m)
	}
	return messages, errors.Wrap(rows.Err(), "chatRepo.ListMessages.Rows")
}
