package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

// RideEventRepo persists status-change audit events using pgx and plain SQL.
// Rows are append-only; ordering is (created_at, id) with the bigserial id as
// the monotonic tiebreak for same-timestamp inserts.
type RideEventRepo struct{}

// NewRideEventRepo constructs a new RideEventRepo.
func NewRideEventRepo() ports.RideEventRepository {
	return &RideEventRepo{}
}

// Append inserts a new ride_status_events row.
func (repo *RideEventRepo) Append(ctx context.Context, event *ride.Event) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// validate event before inserting
	if err := event.Validate(); err != nil {
		return err
	}

	// serialize metadata to JSON
	metadata, err := event.MetadataJSON()
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ride_status_events (
			ride_id, old_status, new_status, changed_by, changed_by_id,
			event_type, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)
		RETURNING id
	`,
		event.RideID,
		event.OldStatus.String(),
		event.NewStatus.String(),
		event.ChangedBy.String(),
		event.ChangedByID,
		string(event.Type),
		string(metadata),
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert ride event: %w", err)
	}

	return nil
}

// ListByRide returns all events for a ride in insertion order.
func (repo *RideEventRepo) ListByRide(ctx context.Context, rideID string) ([]ride.Event, error) {
	return repo.list(ctx, rideID, nil)
}

// ListSince returns events strictly after the checkpoint in insertion order.
func (repo *RideEventRepo) ListSince(ctx context.Context, rideID string, after time.Time) ([]ride.Event, error) {
	return repo.list(ctx, rideID, &after)
}

func (repo *RideEventRepo) list(ctx context.Context, rideID string, after *time.Time) ([]ride.Event, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, ride_id, old_status, new_status, changed_by, changed_by_id,
		       event_type, metadata, created_at
		FROM ride_status_events
		WHERE ride_id = $1`
	args := []any{rideID}
	if after != nil {
		query += ` AND created_at > $2`
		args = append(args, *after)
	}
	query += ` ORDER BY created_at, id`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ride events: %w", err)
	}
	defer rows.Close()

	var events []ride.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

// scanEvent decodes one ride_status_events row.
func scanEvent(row pgx.Row) (ride.Event, error) {
	var event ride.Event
	var oldStatus, newStatus, changedBy, eventType string
	var metadata []byte

	err := row.Scan(
		&event.ID, &event.RideID, &oldStatus, &newStatus, &changedBy,
		&event.ChangedByID, &eventType, &metadata, &event.CreatedAt,
	)
	if err != nil {
		return ride.Event{}, err
	}

	event.OldStatus = ride.Status(oldStatus)
	event.NewStatus = ride.Status(newStatus)
	event.ChangedBy = ride.Actor(changedBy)
	event.Type = ride.EventType(eventType)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
			return ride.Event{}, fmt.Errorf("decode event metadata: %w", err)
		}
	}

	return event, nil
}
