package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status represents where a restaurant sits in the onboarding lifecycle.
type Status string

const (
	StatusPending             Status = "pending"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusWithdrawalRequested Status = "withdrawal_requested"
	StatusInactive            Status = "inactive"
)

// Trigger names an event that moves a restaurant between statuses.
type Trigger string

const (
	TriggerApprove           Trigger = "approve"
	TriggerReject            Trigger = "reject"
	TriggerRequestWithdrawal Trigger = "request_withdrawal"
	TriggerApproveWithdrawal Trigger = "approve_withdrawal"
	TriggerRejectWithdrawal  Trigger = "reject_withdrawal"
)

var (
	ErrInvalidStatus     = errors.New("restaurant status is invalid")
	ErrInvalidTransition = errors.New("restaurant status transition is not allowed")
	ErrMissingName       = errors.New("restaurant name is required")
	ErrMissingEmail      = errors.New("restaurant email is required")
)

var transitions = map[Status]map[Trigger]Status{
	StatusPending: {
		TriggerApprove: StatusApproved,
		TriggerReject:  StatusRejected,
	},
	StatusApproved: {
		TriggerRequestWithdrawal: StatusWithdrawalRequested,
	},
	StatusWithdrawalRequested: {
		TriggerApproveWithdrawal: StatusInactive,
		TriggerRejectWithdrawal:  StatusApproved,
	},
}

// AllStatuses lists every status a restaurant can hold.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusWithdrawalRequested, StatusInactive}
}

// ParseStatus normalizes a raw value into a known status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWithdrawalRequested, StatusInactive:
		return true
	}
	return false
}

// IsOperational is true while the restaurant may use its dashboard and be listed to customers.
// A pending withdrawal does not change either until an admin resolves it.
func (s Status) IsOperational() bool {
	return s == StatusApproved || s == StatusWithdrawalRequested
}

// IsTerminal reports statuses with no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusInactive
}

// Next resolves the status reached by applying trigger, or ErrInvalidTransition.
func (s Status) Next(trigger Trigger) (Status, error) {
	if next, ok := transitions[s][trigger]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, s)
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Restaurant is the aggregate whose status the onboarding workflow governs.
type Restaurant struct {
	ID          int64
	Application RestaurantApplication
	Status      Status
	// Username is the canonical login assigned by the record store, if any.
	Username string
}

// NewRestaurant builds a pending restaurant from a submitted application.
func NewRestaurant(id int64, app RestaurantApplication) (*Restaurant, error) {
	if strings.TrimSpace(app.Profile.Name) == "" {
		return nil, ErrMissingName
	}
	if strings.TrimSpace(app.Contact.Email) == "" {
		return nil, ErrMissingEmail
	}
	return &Restaurant{ID: id, Application: app, Status: StatusPending}, nil
}

// Name returns the display name of the restaurant.
func (r *Restaurant) Name() string {
	return r.Application.Profile.Name
}

// Email returns the registration email.
func (r *Restaurant) Email() string {
	return r.Application.Contact.Email
}

// LoginUsername is the canonical username when assigned, otherwise the registration email.
func (r *Restaurant) LoginUsername() string {
	if u := strings.TrimSpace(r.Username); u != "" {
		return u
	}
	return strings.ToLower(strings.TrimSpace(r.Email()))
}

// ApplicationRef is the client-visible reference echoed back after registration.
func (r *Restaurant) ApplicationRef() string {
	return ApplicationRef(r.ID)
}

// ApplicationRef formats the support reference for a restaurant id.
func ApplicationRef(id int64) string {
	return fmt.Sprintf("FD-%d", id)
}

// Apply moves the restaurant along trigger and returns the previous status.
func (r *Restaurant) Apply(trigger Trigger) (Status, error) {
	next, err := r.Status.Next(trigger)
	if err != nil {
		return r.Status, err
	}
	prev := r.Status
	r.Status = next
	return prev, nil
}

// Clone returns a deep copy safe to hand across adapter boundaries.
func (r *Restaurant) Clone() *Restaurant {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Application = r.Application.Clone()
	return &clone
}
