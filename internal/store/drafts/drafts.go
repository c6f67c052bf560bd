// Package drafts keeps in-progress wizard state between HTTP requests.
package drafts

import (
	"context"
	"errors"

	"github.com/aashish4533/bloombook/internal/wizard"
)

var ErrNotFound = errors.New("drafts: not found")

// Store persists one wizard.State per user and kind.
type Store interface {
	Load(ctx context.Context, userID string, kind wizard.Kind) (wizard.State, error)
	Save(ctx context.Context, userID string, s wizard.State) error
	Delete(ctx context.Context, userID string, kind wizard.Kind) error
	// DeleteAll drops every draft the user has, e.g. on logout.
	DeleteAll(ctx context.Context, userID string) error
}

var kinds = []wizard.Kind{wizard.KindSell, wizard.KindRent}
