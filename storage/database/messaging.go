package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/messaging"
)

type messageRepository struct {
	db *sqlx.DB
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *sqlx.DB) messaging.Repository {
	return &messageRepository{db: db}
}

const messageColumns = `id, sender_id, recipient_id, body, read, created_at`

func (repo *messageRepository) CreateMessage(msg messaging.Message) error {
	q := `INSERT INTO message (` + messageColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.Exec(q, msg.ID, msg.SenderID, msg.RecipientID, msg.Body, msg.Read, msg.CreatedAt)
	return errors.Wrap(err, "creating message")
}

func (repo *messageRepository) ConversationMessages(accountID, peerID string) ([]messaging.Message, error) {
	q := `SELECT ` + messageColumns + ` FROM message
	WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
	ORDER BY created_at`
	rows, err := repo.db.Queryx(q, accountID, peerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying conversation")
	}
	defer func() { _ = rows.Close() }()

	var msgs []messaging.Message
	for rows.Next() {
		var msg messaging.Message
		if err = rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Body, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning message")
		}
		msgs = append(msgs, msg)
	}
	return msgs, errors.Wrap(rows.Err(), "querying conversation")
}

func (repo *messageRepository) Inbox(accountID string) ([]messaging.Conversation, error) {
	// one row per peer: the latest message plus the unread count
	q := `
	SELECT DISTINCT ON (peer_id) peer_id, body, created_at, unread FROM (
		SELECT
			CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer_id,
			body,
			created_at,
			COUNT(*) FILTER (WHERE recipient_id = $1 AND NOT read)
				OVER (PARTITION BY CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END) AS unread
		FROM message
		WHERE sender_id = $1 OR recipient_id = $1
	) threads
	ORDER BY peer_id, created_at DESC`
	rows, err := repo.db.Queryx(q, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "querying inbox")
	}
	defer func() { _ = rows.Close() }()

	var convs []messaging.Conversation
	for rows.Next() {
		var conv messaging.Conversation
		if err = rows.Scan(&conv.PeerID, &conv.LastMessage, &conv.LastAt, &conv.Unread); err != nil {
			return nil, errors.Wrap(err, "scanning conversation")
		}
		convs = append(convs, conv)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying inbox")
	}

	// most recent thread first
	for i := 1; i < len(convs); i++ {
		for j := i; j > 0 && convs[j].LastAt.After(convs[j-1].LastAt); j-- {
			convs[j], convs[j-1] = convs[j-1], convs[j]
		}
	}
	return convs, nil
}

func (repo *messageRepository) MarkConversationRead(accountID, peerID string) (int, error) {
	res, err := repo.db.Exec(
		`UPDATE message SET read = true WHERE recipient_id = $1 AND sender_id = $2 AND NOT read`,
		accountID, peerID)
	if err != nil {
		return 0, errors.Wrap(err, "marking conversation read")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "marking conversation read")
}
