package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alif-engine/core/pkg/models"
)

// GetRoot fetches one root by ID.
func (s *Store) GetRoot(ctx context.Context, rootID string) (*models.Root, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT root_id, consonants, core_meaning, created_at FROM roots WHERE root_id = $1`, rootID)
	var r models.Root
	if err := row.Scan(&r.RootID, &r.Consonants, &r.CoreMeaning, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("root: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scanning root: %w", err)
	}
	return &r, nil
}
