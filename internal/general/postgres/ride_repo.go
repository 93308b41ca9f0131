package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ridesync/internal/domain/ride"
	"ridesync/internal/ports"
)

// RideRepo persists rides using pgx and plain SQL.
type RideRepo struct{}

// NewRideRepo constructs a new RideRepo.
func NewRideRepo() ports.RideRepository {
	return &RideRepo{}
}

const rideColumns = `
	id, created_at, user_id, driver_id, ride_status, status_updated_by,
	last_status_update, cancelled_at, pickup_address, destination_address,
	pickup_lat, pickup_lng, destination_lat, destination_lng,
	estimated_duration_minutes`

// Create inserts a new ride row.
func (repo *RideRepo) Create(ctx context.Context, r *ride.Ride) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rides (
			id, created_at, user_id, driver_id, ride_status, status_updated_by,
			last_status_update, pickup_address, destination_address,
			pickup_lat, pickup_lng, destination_lat, destination_lng,
			estimated_duration_minutes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		r.ID,
		r.CreatedAt,
		r.UserID,
		r.DriverID,
		r.Status.String(),
		r.StatusUpdatedBy.String(),
		r.LastStatusUpdate,
		r.PickupAddress,
		r.DestinationAddress,
		r.Pickup.Latitude,
		r.Pickup.Longitude,
		r.Destination.Latitude,
		r.Destination.Longitude,
		r.EstimatedDurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}

	return nil
}

// GetByID fetches a ride by primary key.
func (repo *RideRepo) GetByID(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.get(ctx, id, false)
}

// GetByIDForUpdate fetches a ride while holding its row lock.
func (repo *RideRepo) GetByIDForUpdate(ctx context.Context, id string) (*ride.Ride, error) {
	return repo.get(ctx, id, true)
}

func (repo *RideRepo) get(ctx context.Context, id string, forUpdate bool) (*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	out, err := scanRide(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ride.ErrNotFound
		}
		return nil, fmt.Errorf("query ride %s: %w", id, err)
	}

	return out, nil
}

// UpdateStatusFrom performs the conditional status write guarding every
// transition. The WHERE clause re-checks the expected current status, so if
// two requests race on the same row at most one matches and succeeds; the
// caller maps a zero row count to a conflict.
func (repo *RideRepo) UpdateStatusFrom(ctx context.Context, id string, from, to ride.Status, actor ride.Actor, driverID *string, at time.Time) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET ride_status = $1,
		    status_updated_by = $2,
		    last_status_update = $3,
		    driver_id = COALESCE(driver_id, $4),
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN $3 ELSE cancelled_at END
		WHERE id = $5
		  AND ride_status = $6
	`,
		to.String(),
		actor.String(),
		at,
		driverID,
		id,
		from.String(),
	)
	if err != nil {
		return false, fmt.Errorf("update ride status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListByStatus returns rides currently in the given status, oldest first.
func (repo *RideRepo) ListByStatus(ctx context.Context, status ride.Status, limit int) ([]*ride.Ride, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE ride_status = $1
		ORDER BY created_at
		LIMIT $2
	`, status.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("query rides by status: %w", err)
	}
	defer rows.Close()

	var rides []*ride.Ride
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return rides, nil
}

// scanRide decodes one rides row from any pgx row source.
func scanRide(row pgx.Row) (*ride.Ride, error) {
	var out ride.Ride
	var status, actor string

	err := row.Scan(
		&out.ID, &out.CreatedAt, &out.UserID, &out.DriverID, &status, &actor,
		&out.LastStatusUpdate, &out.CancelledAt, &out.PickupAddress, &out.DestinationAddress,
		&out.Pickup.Latitude, &out.Pickup.Longitude, &out.Destination.Latitude, &out.Destination.Longitude,
		&out.EstimatedDurationMinutes,
	)
	if err != nil {
		return nil, err
	}

	out.Status = ride.Status(status)
	out.StatusUpdatedBy = ride.Actor(actor)
	return &out, nil
}
