package listings

import (
	"context"
	"database/sql"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aashish4533/bloombook/internal/wizard"
)

const (
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// Store is the listings repository. Reads by key go through a small LRU.
type Store struct {
	db    *sql.DB
	cache *lru.Cache[string, Listing]
}

func New(db *sql.DB, cacheSize int) *Store {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	c, _ := lru.New[string, Listing](cacheSize)
	return &Store{db: db, cache: c}
}

// Submitter adapts the store to the wizard's submission seam.
func (s *Store) Submitter() wizard.Submitter {
	return wizard.SubmitterFunc(func(ctx context.Context, sub wizard.Submission) (wizard.Receipt, error) {
		l, err := s.Create(ctx, sub)
		if err != nil {
			return wizard.Receipt{}, err
		}
		s.cache.Add(l.ID, l)
		s.cache.Add(l.Slug, l)
		return wizard.Receipt{ListingID: l.ID, SubmittedAt: l.CreatedAt}, nil
	})
}
