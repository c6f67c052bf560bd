package listings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aashish4533/bloombook/internal/store/shared"
)

// Remove soft-deletes a listing owned by ownerID.
func (s *Store) Remove(ctx context.Context, key, ownerID string) error {
	cond, arg := shared.ResolveKeyCond("l", key, 1)

	var id, slug, owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT l.id::text, l.slug, l.owner_id::text FROM listings l WHERE `+cond+` AND l.status = 'active'`, arg).
		Scan(&id, &slug, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET status = 'removed', updated_at = now() WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.cache.Remove(id)
	s.cache.Remove(slug)
	return nil
}
