package messaging

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edukit/eduhub/core"
)

type (
	// Message is a direct message between two accounts.
	Message struct {
		ID          string    `json:"id"`
		SenderID    string    `json:"sender_id"`
		RecipientID string    `json:"recipient_id"`
		Body        string    `json:"body"`
		Read        bool      `json:"read"`
		CreatedAt   time.Time `json:"created_at"`
	}

	NewMessage struct {
		RecipientID string `json:"recipient_id" validate:"required"`
		Body        string `json:"body" validate:"required,max=5000"`
	}

	// Conversation summarizes one peer thread for the inbox view.
	Conversation struct {
		PeerID      string    `json:"peer_id"`
		LastMessage string    `json:"last_message"`
		LastAt      time.Time `json:"last_at"`
		Unread      int       `json:"unread"`
	}
)

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.RecipientID = core.CleanString(nm.RecipientID)
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}
