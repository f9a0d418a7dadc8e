package service

import (
	"time"

	"orderdesk/internal/models"
	"orderdesk/internal/store"

	"github.com/google/uuid"
)

// Staff actions on an order.
const (
	ActionAccept   = "accept"
	ActionReject   = "reject"
	ActionComplete = "complete"
)

// transitionRule describes one action: the statuses it may leave from and the
// status it lands on. This table is the whole state machine; everything not
// listed here is an invalid transition.
type transitionRule struct {
	from   []string
	target string
}

var transitionRules = map[string]transitionRule{
	ActionAccept: {
		from:   []string{models.OrderStatusPending},
		target: models.OrderStatusPreparing,
	},
	ActionReject: {
		from:   []string{models.OrderStatusPending, models.OrderStatusPreparing},
		target: models.OrderStatusCancelled,
	},
	ActionComplete: {
		from:   []string{models.OrderStatusPreparing},
		target: models.OrderStatusCompleted,
	},
}

// allowedFrom reports whether action may be applied to an order currently in
// the given status.
func allowedFrom(action, current string) bool {
	rule, ok := transitionRules[action]
	if !ok {
		return false
	}
	for _, s := range rule.from {
		if s == current {
			return true
		}
	}
	return false
}

// buildPatch produces the field group written by one action. Exactly one of
// the accepted/completed/cancelled groups is populated.
func buildPatch(action string, actor uuid.UUID, reason string, now time.Time) store.TransitionPatch {
	patch := store.TransitionPatch{NewStatus: transitionRules[action].target}

	switch action {
	case ActionAccept:
		patch.AcceptedAt = &now
		patch.AcceptedBy = &actor
	case ActionComplete:
		patch.CompletedAt = &now
		patch.CompletedBy = &actor
	case ActionReject:
		if reason == "" {
			reason = models.DefaultRejectReason
		}
		patch.CancelledAt = &now
		patch.CancelledBy = &actor
		patch.CancellationReason = &reason
	}

	return patch
}
