package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"ridesync/internal/ports"
)

// DeviceRegistry stores push addresses in Redis hashes keyed by identity.
// The registry is advisory state: a missing entry simply means "no push",
// never an error, so lookups translate redis.Nil into (nil, nil).
type DeviceRegistry struct {
	client *redis.Client
}

// NewDeviceRegistry constructs a DeviceRegistry on the given client.
func NewDeviceRegistry(client *redis.Client) ports.DeviceRegistry {
	return &DeviceRegistry{client: client}
}

var errIdentityRequired = errors.New("identity is required")

func deviceKey(identity string) string {
	return "device:" + identity
}

// Register stores (or replaces) the push device for an identity.
func (registry *DeviceRegistry) Register(ctx context.Context, identity string, device ports.PushDevice) error {
	if identity = strings.TrimSpace(identity); identity == "" {
		return errIdentityRequired
	}
	if strings.TrimSpace(device.PushAddress) == "" {
		return errors.New("push address is required")
	}

	err := registry.client.HSet(ctx, deviceKey(identity), map[string]any{
		"push_address": device.PushAddress,
		"device_kind":  device.DeviceKind,
	}).Err()
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

// Lookup returns the registered device for an identity, or (nil, nil) when absent.
func (registry *DeviceRegistry) Lookup(ctx context.Context, identity string) (*ports.PushDevice, error) {
	if identity = strings.TrimSpace(identity); identity == "" {
		return nil, errIdentityRequired
	}

	fields, err := registry.client.HGetAll(ctx, deviceKey(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("lookup device: %w", err)
	}
	if len(fields) == 0 || fields["push_address"] == "" {
		return nil, nil
	}

	return &ports.PushDevice{
		PushAddress: fields["push_address"],
		DeviceKind:  fields["device_kind"],
	}, nil
}

// Remove deletes the registered device for an identity; removing an absent
// identity is a no-op.
func (registry *DeviceRegistry) Remove(ctx context.Context, identity string) error {
	if identity = strings.TrimSpace(identity); identity == "" {
		return errIdentityRequired
	}

	if err := registry.client.Del(ctx, deviceKey(identity)).Err(); err != nil {
		return fmt.Errorf("remove device: %w", err)
	}
	return nil
}
