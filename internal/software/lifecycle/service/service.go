package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"ridesync/internal/general/logger"
	"ridesync/internal/ports"
)

const producerName = "lifecycle-service"

// lifecycleService owns every ride status write and the read side used by
// sync pollers.
type lifecycleService struct {
	logger    *logger.Logger
	uow       ports.UnitOfWork
	rides     ports.RideRepository
	events    ports.RideEventRepository
	devices   ports.DeviceRegistry
	locations ports.DriverLocationRepository
	pub       ports.Publisher
}

// NewLifecycleService creates the lifecycle service with the provided dependencies.
func NewLifecycleService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rides ports.RideRepository,
	events ports.RideEventRepository,
	devices ports.DeviceRegistry,
	locations ports.DriverLocationRepository,
	pub ports.Publisher,
) ports.LifecycleService {
	return &lifecycleService{
		logger:    logger,
		uow:       uow,
		rides:     rides,
		events:    events,
		devices:   devices,
		locations: locations,
		pub:       pub,
	}
}

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405")
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}
