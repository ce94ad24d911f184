package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/repository"
	"github.com/iliyamo/branch-scheduler/internal/service"
	"github.com/iliyamo/branch-scheduler/internal/utils"
)

// UserLookup resolves a user by id.
type UserLookup interface {
	FindUser(ctx context.Context, id uint64) (model.User, error)
}

// Authenticator verifies handshake tokens.  The role used for room
// membership comes from the stored user, not from the token, so a role
// change takes effect on the next connect.
type Authenticator struct {
	secret string
	users  UserLookup
}

func NewAuthenticator(secret string, users UserLookup) *Authenticator {
	return &Authenticator{secret: secret, users: users}
}

// Authenticate returns the user named by token.  Missing, invalid or
// expired tokens and unknown users fail with service.ErrUnauthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, service.ErrUnauthenticated
	}
	id, _, err := utils.ParseAccessToken(a.secret, token)
	if err != nil {
		return model.User{}, service.ErrUnauthenticated
	}
	u, err := a.users.FindUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, service.ErrUnauthenticated
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
