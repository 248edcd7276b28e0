package notify

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// RecipientResolver decides who is notified about a task update.
type RecipientResolver interface {
	Recipients(ctx context.Context, update events.TaskUpdatedPayload) ([]int64, error)
}

// AllUsersResolver notifies every registered user.
type AllUsersResolver struct {
	users    store.UserStore
	pageSize int
}

// NewAllUsersResolver creates an AllUsersResolver that reads users in
// pages of domain.MaxPerPage.
func NewAllUsersResolver(users store.UserStore) *AllUsersResolver {
	return &AllUsersResolver{users: users, pageSize: domain.MaxPerPage}
}

// Recipients implements RecipientResolver.
func (r *AllUsersResolver) Recipients(ctx context.Context, _ events.TaskUpdatedPayload) ([]int64, error) {
	var ids []int64
	for page := 1; ; page++ {
		users, total, err := r.users.List(ctx, domain.NewPageRequest(page, r.pageSize))
		if err != nil {
			return nil, fmt.Errorf("failed to list recipients: %w", err)
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		if len(users) < r.pageSize || int64(len(ids)) >= total {
			return ids, nil
		}
	}
}
