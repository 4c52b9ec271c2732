package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core/user"
)

var (
	ErrNotFound      = errors.New("message not found")
	ErrSelfMessaging = errors.New("cannot message yourself")
)

type (
	Repository interface {
		CreateMessage(msg Message) error
		// ConversationMessages returns all messages between the two
		// accounts, in either direction, oldest first.
		ConversationMessages(accountID, peerID string) ([]Message, error)
		// Inbox returns one summary per peer the account has exchanged
		// messages with, most recent thread first.
		Inbox(accountID string) ([]Conversation, error)
		// MarkConversationRead marks every message from peerID to
		// accountID as read and reports how many were updated.
		MarkConversationRead(accountID, peerID string) (int, error)
	}

	Service interface {
		Send(actor user.User, nm NewMessage) (Message, error)
		Conversation(actor user.User, peerID string) ([]Message, error)
		Inbox(actor user.User) ([]Conversation, error)
		MarkRead(actor user.User, peerID string) (int, error)
	}

	service struct {
		repo  Repository
		users user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users user.Service) Service {
	return &service{repo: repo, users: users}
}

func (svc *service) Send(actor user.User, nm NewMessage) (Message, error) {
	if nm.RecipientID == actor.ID {
		return Message{}, ErrSelfMessaging
	}
	if _, err := svc.users.GetByID(nm.RecipientID); err != nil {
		return Message{}, errors.Wrap(err, "resolving recipient")
	}

	msg := Message{
		ID:          uuid.New().String(),
		SenderID:    actor.ID,
		RecipientID: nm.RecipientID,
		Body:        nm.Body,
		CreatedAt:   time.Now().UTC(),
	}
	if err := svc.repo.CreateMessage(msg); err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	return msg, nil
}

// Conversation returns the full thread with a peer and marks the peer's
// messages as read; opening a thread is what clears its unread badge.
func (svc *service) Conversation(actor user.User, peerID string) ([]Message, error) {
	msgs, err := svc.repo.ConversationMessages(actor.ID, peerID)
	if err != nil {
		return nil, err
	}
	if _, err = svc.repo.MarkConversationRead(actor.ID, peerID); err != nil {
		return nil, errors.Wrap(err, "marking conversation read")
	}
	for i := range msgs {
		if msgs[i].RecipientID == actor.ID {
			msgs[i].Read = true
		}
	}
	return msgs, nil
}

func (svc *service) Inbox(actor user.User) ([]Conversation, error) {
	return svc.repo.Inbox(actor.ID)
}

func (svc *service) MarkRead(actor user.User, peerID string) (int, error) {
	return svc.repo.MarkConversationRead(actor.ID, peerID)
}
