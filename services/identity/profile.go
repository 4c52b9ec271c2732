package identitysvc

import (
	"context"

	"github.com/edukit/eduhub/core/session"
	"github.com/edukit/eduhub/core/user"
)

// ProfileService serves profile documents straight from the user service.
type ProfileService struct {
	users user.Service
}

var _ session.ProfileStore = (*ProfileService)(nil)

func NewProfileService(users user.Service) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) GetProfile(_ context.Context, accountID string) (user.User, error) {
	return s.users.GetByID(accountID)
}
