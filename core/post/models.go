package post

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edukit/eduhub/core"
)

type (
	// Post is a feed entry.
	Post struct {
		ID         string    `json:"id"`
		AuthorID   string    `json:"author_id"`
		AuthorName string    `json:"author_name"`
		AuthorRole string    `json:"author_role"`
		Content    string    `json:"content"`
		Likes      int       `json:"likes"`
		CreatedAt  time.Time `json:"created_at"`
		UpdatedAt  time.Time `json:"updated_at"`
	}

	// NewPost contains information needed to publish a feed entry.
	NewPost struct {
		Content string `json:"content" validate:"required,max=2000"`
	}
)

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Content = core.CleanString(np.Content)
	return validate.Struct(np)
}
