package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alif-engine/core/pkg/models"
)

// InsertInteractionEvent appends one structured telemetry record to C8's
// interaction event stream.
func (s *Store) InsertInteractionEvent(ctx context.Context, e *models.InteractionEvent) error {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("encoding interaction event attributes: %w", err)
	}
	_, err = s.exec.ExecContext(ctx, `
		INSERT INTO interaction_events (id, event_type, occurred_at, attributes)
		VALUES ($1,$2,$3,$4)`, e.ID, e.EventType, e.OccurredAt, attrs)
	if err != nil {
		return fmt.Errorf("inserting interaction event: %w", err)
	}
	return nil
}

// RecentInteractionEvents returns the most recent events of eventType, for
// dashboard/debug endpoints.
func (s *Store) RecentInteractionEvents(ctx context.Context, eventType string, limit int) ([]models.InteractionEvent, error) {
	rows, err := s.exec.QueryContext(ctx, `
		SELECT id, event_type, occurred_at, attributes
		FROM interaction_events WHERE event_type = $1
		ORDER BY occurred_at DESC LIMIT $2`, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("querying interaction events: %w", err)
	}
	defer rows.Close()

	var out []models.InteractionEvent
	for rows.Next() {
		var (
			e          models.InteractionEvent
			attrBytes  []byte
		)
		if err := rows.Scan(&e.ID, &e.EventType, &e.OccurredAt, &attrBytes); err != nil {
			return nil, fmt.Errorf("scanning interaction event: %w", err)
		}
		if len(attrBytes) > 0 {
			_ = json.Unmarshal(attrBytes, &e.Attributes)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
