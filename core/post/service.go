package post

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/user"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrNotAuthor = errors.New("only the author may delete a post")
)

const defaultFeedSize = 50

type (
	Repository interface {
		CreatePost(p Post) error
		GetPostByID(id string) (Post, error)
		LatestPosts(limit int) ([]Post, error)
		IncrementPostLikes(id string) (int, error)
		DeletePostsByID(ids ...string) error
	}

	Service interface {
		Create(actor user.User, np NewPost) (Post, error)
		GetByID(id string) (Post, error)
		Latest(limit int) ([]Post, error)
		Like(id string) (int, error)
		Delete(actor user.User, id string) error
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (svc *service) Create(actor user.User, np NewPost) (Post, error) {
	now := time.Now().UTC()
	p := Post{
		ID:         uuid.New().String(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.PrimaryRole(),
		Content:    np.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := svc.repo.CreatePost(p); err != nil {
		return Post{}, errors.Wrap(err, "creating post")
	}
	return p, nil
}

func (svc *service) GetByID(id string) (Post, error) {
	return svc.repo.GetPostByID(id)
}

// Latest returns the most recent posts, newest first. A non-positive limit
// falls back to the default feed size.
func (svc *service) Latest(limit int) ([]Post, error) {
	if limit <= 0 {
		limit = defaultFeedSize
	}
	return svc.repo.LatestPosts(limit)
}

func (svc *service) Like(id string) (int, error) {
	return svc.repo.IncrementPostLikes(id)
}

// Delete removes a post. Authors may delete their own posts; admins may
// delete any.
func (svc *service) Delete(actor user.User, id string) error {
	p, err := svc.repo.GetPostByID(id)
	if err != nil {
		return err
	}
	if p.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrNotAuthor
	}
	return svc.repo.DeletePostsByID(id)
}
