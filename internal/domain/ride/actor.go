package ride

import (
	"errors"
	"strings"
)

// Actor is the party requesting a status transition, recorded in
// `rides.status_updated_by` and `ride_status_events.changed_by`.
type Actor string

const (
	ActorDriver    Actor = "driver"
	ActorPassenger Actor = "passenger"
	ActorSystem    Actor = "system"
)

var ErrInvalidActor = errors.New("invalid actor")

// ParseActor normalizes (lowercases+trims) and validates an actor string.
func ParseActor(in string) (Actor, error) {
	actor := Actor(strings.ToLower(strings.TrimSpace(in)))
	if actor.Valid() {
		return actor, nil
	}
	return "", ErrInvalidActor
}

// Valid reports whether actor is one of the allowed actor constants.
func (actor Actor) Valid() bool {
	switch actor {
	case ActorDriver, ActorPassenger, ActorSystem:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Actor.
func (actor Actor) String() string {
	return string(actor)
}

// Counterparty returns which party should be notified about a transition
// this actor performed. Driver actions notify the passenger; passenger and
// system actions notify the driver.
func (actor Actor) Counterparty() Actor {
	if actor == ActorDriver {
		return ActorPassenger
	}
	return ActorDriver
}
