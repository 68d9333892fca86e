package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"yumspot-api/models"
)

// Actor is who asks for a delivery status change.
type Actor string

const (
	ActorRestaurant Actor = "restaurant"
	ActorAdmin      Actor = "admin"
)

var ErrInvalidTransition = errors.New("invalid delivery transition")

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.DeliveryStatus `json:"from"`
	To    models.DeliveryStatus `json:"to"`
	Actor Actor                 `json:"actor"`
}

// validTransitions is the authoritative delivery lifecycle
var validTransitions = []Transition{
	{From: models.DeliveryPending, To: models.DeliveryShipping, Actor: ActorRestaurant},
	{From: models.DeliveryPending, To: models.DeliveryCancelled, Actor: ActorRestaurant},
	{From: models.DeliveryShipping, To: models.DeliveryDelivered, Actor: ActorRestaurant},
	{From: models.DeliveryShipping, To: models.DeliveryCancelled, Actor: ActorRestaurant},
	// admin can do everything the restaurant can
	{From: models.DeliveryPending, To: models.DeliveryShipping, Actor: ActorAdmin},
	{From: models.DeliveryPending, To: models.DeliveryCancelled, Actor: ActorAdmin},
	{From: models.DeliveryShipping, To: models.DeliveryDelivered, Actor: ActorAdmin},
	{From: models.DeliveryShipping, To: models.DeliveryCancelled, Actor: ActorAdmin},
}

type transitionKey struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.DeliveryStatus) []models.DeliveryStatus {
	nexts := []models.DeliveryStatus{}
	seen := map[models.DeliveryStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.DeliveryStatus, actor Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed for %s; valid transitions from %s are: %s",
		ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.DeliveryStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full lifecycle for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
