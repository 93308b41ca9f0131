package service

import (
	"context"
	"time"

	"ridesync/internal/domain/ride"
	"ridesync/internal/general/logger"
	"ridesync/internal/ports"
)

// autopilotActorID identifies system-driven transitions in the audit log.
const autopilotActorID = "autopilot"

// autoAdvanceStatuses are the only statuses with a dwell deadline.
var autoAdvanceStatuses = []ride.Status{
	ride.StatusConfirmed,
	ride.StatusDriverArrived,
	ride.StatusInProgress,
}

// autopilotService promotes rides stuck past their dwell deadlines. All writes
// go through the lifecycle service as the system actor, so autopilot races
// with human actors on equal terms.
type autopilotService struct {
	logger     *logger.Logger
	uow        ports.UnitOfWork
	rides      ports.RideRepository
	lifecycle  ports.LifecycleService
	interval   time.Duration
	batchLimit int
}

// NewAutopilotService creates the autopilot service with the provided dependencies.
func NewAutopilotService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rides ports.RideRepository,
	lifecycle ports.LifecycleService,
	interval time.Duration,
	batchLimit int,
) ports.AutopilotService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchLimit <= 0 {
		batchLimit = 100
	}

	return &autopilotService{
		logger:     logger,
		uow:        uow,
		rides:      rides,
		lifecycle:  lifecycle,
		interval:   interval,
		batchLimit: batchLimit,
	}
}

// ScanDue reports the rides whose dwell deadline has passed at the given
// instant, grouped by the transition they are owed. Read-only.
func (service *autopilotService) ScanDue(ctx context.Context, now time.Time) (ports.ScanResult, error) {
	var result ports.ScanResult

	for _, status := range autoAdvanceStatuses {
		candidates, err := service.listByStatus(ctx, status)
		if err != nil {
			return ports.ScanResult{}, err
		}

		for _, candidate := range candidates {
			next, due := candidate.NextAutoStatus(now)
			if !due {
				continue
			}

			row := ports.DueRideRow{
				RideID:    candidate.ID,
				Status:    candidate.Status.String(),
				CreatedAt: candidate.CreatedAt,
			}
			switch next {
			case ride.StatusDriverArrived:
				result.ToDriverArrived = append(result.ToDriverArrived, row)
			case ride.StatusInProgress:
				result.ToInProgress = append(result.ToInProgress, row)
			case ride.StatusCompleted:
				result.ToCompleted = append(result.ToCompleted, row)
			}
		}
	}

	return result, nil
}

// AdvanceDue applies one pass of due transitions. Every ride is attempted
// independently; one failure never blocks the rest of the batch.
func (service *autopilotService) AdvanceDue(ctx context.Context, now time.Time) (ports.AdvanceReport, error) {
	var report ports.AdvanceReport

	for _, status := range autoAdvanceStatuses {
		candidates, err := service.listByStatus(ctx, status)
		if err != nil {
			return report, err
		}
		report.Scanned += len(candidates)

		for _, candidate := range candidates {
			next, due := candidate.NextAutoStatus(now)
			if !due {
				continue
			}

			_, err := service.lifecycle.ApplyTransition(ctx, ports.TransitionInput{
				RideID:    candidate.ID,
				NewStatus: next,
				Actor:     ride.ActorSystem,
				ActorID:   autopilotActorID,
				Metadata:  map[string]any{"reason": "dwell_deadline"},
			})
			if err != nil {
				report.Failed++
				service.logger.Error(ctx, "auto_advance_failed", "Failed to auto-advance ride", err, map[string]any{
					"ride_id":     candidate.ID,
					"from_status": candidate.Status.String(),
					"to_status":   next.String(),
				})
				continue
			}
			report.Advanced++
		}
	}

	return report, nil
}

// Run executes advance passes on a fixed interval until ctx is cancelled.
// The first pass runs immediately.
func (service *autopilotService) Run(ctx context.Context) {
	service.logger.Info(ctx, "autopilot_started", "Autopilot scan loop started", map[string]any{
		"interval_seconds": int(service.interval.Seconds()),
		"batch_limit":      service.batchLimit,
	})

	ticker := time.NewTicker(service.interval)
	defer ticker.Stop()

	for {
		service.pass(ctx)

		select {
		case <-ctx.Done():
			service.logger.Info(ctx, "autopilot_stopped", "Autopilot scan loop stopped", nil)
			return
		case <-ticker.C:
		}
	}
}

// listByStatus runs the candidate query in its own read transaction.
func (service *autopilotService) listByStatus(ctx context.Context, status ride.Status) ([]*ride.Ride, error) {
	var candidates []*ride.Ride
	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		candidates, err = service.rides.ListByStatus(ctx, status, service.batchLimit)
		return err
	})
	return candidates, err
}

func (service *autopilotService) pass(ctx context.Context) {
	report, err := service.AdvanceDue(ctx, time.Now().UTC())
	if err != nil {
		service.logger.Error(ctx, "autopilot_pass_failed", "Autopilot pass aborted", err, nil)
		return
	}

	if report.Advanced > 0 || report.Failed > 0 {
		service.logger.Info(ctx, "autopilot_pass_done", "Autopilot pass finished", report)
	}
}
