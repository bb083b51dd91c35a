package gitlab

import (
	"context"
	"fmt"

	"gitlab_helper/internal/model"
)

// UsersService reads users
type UsersService struct {
	client *Client
}

// Current returns the owner of the configured token
func (s *UsersService) Current(ctx context.Context) (model.User, error) {
	user, err := Call[apiUser](ctx, s.client, "user", "", nil)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return ReduceUser(user), nil
}
