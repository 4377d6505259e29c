package calendar

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/terraincognita07/cyclecal/internal/cycle"
)

type State int

const (
	StateIdle State = iota
	StateDateSelected
	StateConfirmClearAll
)

func (state State) String() string {
	switch state {
	case StateDateSelected:
		return "date_selected"
	case StateConfirmClearAll:
		return "confirm_clear_all"
	default:
		return "idle"
	}
}

// Action is what the UI offers for the selected date.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

type MutationKind string

const (
	MutationAdd      MutationKind = "add"
	MutationRemove   MutationKind = "remove"
	MutationClearAll MutationKind = "clear_all"
)

type TransitionStatus string

const (
	TransitionPending    TransitionStatus = "pending"
	TransitionCommitted  TransitionStatus = "committed"
	TransitionRolledBack TransitionStatus = "rolled_back"
	TransitionFailed     TransitionStatus = "failed"
)

// Transition tracks one optimistic mutation from issue to completion.
// Seq orders transitions by issue time within a controller.
type Transition struct {
	ID     uuid.UUID
	Seq    uint64
	Kind   MutationKind
	Date   cycle.Date
	Status TransitionStatus
	Err    error
}

func (transition Transition) Done() bool {
	return transition.Status != TransitionPending
}

type RollbackPolicy int

const (
	// RollbackOnFailure reverts the local change when the store rejects it,
	// unless a newer mutation already touched the same data.
	RollbackOnFailure RollbackPolicy = iota
	// KeepOptimistic reports the failure and leaves local state as is.
	KeepOptimistic
)

// StoreError is handed to the error hook when a persistence call fails.
type StoreError struct {
	Transition Transition
	Err        error
}

func (storeErr StoreError) Error() string {
	if storeErr.Transition.Kind == MutationClearAll {
		return fmt.Sprintf("%s failed: %v", storeErr.Transition.Kind, storeErr.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", storeErr.Transition.Kind, storeErr.Transition.Date, storeErr.Err)
}

func (storeErr StoreError) Unwrap() error {
	return storeErr.Err
}

func (storeErr StoreError) RolledBack() bool {
	return storeErr.Transition.Status == TransitionRolledBack
}
