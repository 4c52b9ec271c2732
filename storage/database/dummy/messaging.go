package dummydb

import (
	"sort"

	"github.com/edukit/eduhub/core/messaging"
)

type messageRepository struct {
	db *messageTable
}

var _ messaging.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(db *DB) messaging.Repository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) query() []messaging.Message {
	msgs := make([]messaging.Message, 0, len(repo.db.table))
	for _, msg := range repo.db.table {
		msgs = append(msgs, *msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs
}

func (repo *messageRepository) CreateMessage(msg messaging.Message) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[msg.ID] = &msg
	return nil
}

func (repo *messageRepository) ConversationMessages(accountID, peerID string) ([]messaging.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var msgs []messaging.Message
	for _, msg := range repo.query() {
		if (msg.SenderID == accountID && msg.RecipientID == peerID) ||
			(msg.SenderID == peerID && msg.RecipientID == accountID) {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

func (repo *messageRepository) Inbox(accountID string) ([]messaging.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	threads := make(map[string]*messaging.Conversation)
	for _, msg := range repo.query() {
		var peerID string
		switch accountID {
		case msg.SenderID:
			peerID = msg.RecipientID
		case msg.RecipientID:
			peerID = msg.SenderID
		default:
			continue
		}

		conv, ok := threads[peerID]
		if !ok {
			conv = &messaging.Conversation{PeerID: peerID}
			threads[peerID] = conv
		}
		conv.LastMessage = msg.Body
		conv.LastAt = msg.CreatedAt
		if msg.RecipientID == accountID && !msg.Read {
			conv.Unread++
		}
	}

	convs := make([]messaging.Conversation, 0, len(threads))
	for _, conv := range threads {
		convs = append(convs, *conv)
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].LastAt.After(convs[j].LastAt) })
	return convs, nil
}

func (repo *messageRepository) MarkConversationRead(accountID, peerID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, msg := range repo.db.table {
		if msg.RecipientID == accountID && msg.SenderID == peerID && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}
