package service

import (
	"testing"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedFrom(t *testing.T) {
	cases := []struct {
		action  string
		current string
		want    bool
	}{
		{ActionAccept, models.OrderStatusPending, true},
		{ActionAccept, models.OrderStatusPreparing, false},
		{ActionAccept, models.OrderStatusCompleted, false},
		{ActionAccept, models.OrderStatusCancelled, false},

		{ActionReject, models.OrderStatusPending, true},
		{ActionReject, models.OrderStatusPreparing, true},
		{ActionReject, models.OrderStatusCompleted, false},
		{ActionReject, models.OrderStatusCancelled, false},

		{ActionComplete, models.OrderStatusPending, false},
		{ActionComplete, models.OrderStatusPreparing, true},
		{ActionComplete, models.OrderStatusCompleted, false},
		{ActionComplete, models.OrderStatusCancelled, false},

		{"unknown", models.OrderStatusPending, false},
	}

	for _, tc := range cases {
		got := allowedFrom(tc.action, tc.current)
		assert.Equal(t, tc.want, got, "%s from %s", tc.action, tc.current)
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, status := range []string{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		for action := range transitionRules {
			assert.False(t, allowedFrom(action, status),
				"%s must not be allowed from terminal status %s", action, status)
		}
	}
}

func TestBuildPatchAccept(t *testing.T) {
	actor := uuid.New()
	now := time.Now().UTC()

	patch := buildPatch(ActionAccept, actor, "", now)

	assert.Equal(t, models.OrderStatusPreparing, patch.NewStatus)
	require.NotNil(t, patch.AcceptedAt)
	assert.Equal(t, now, *patch.AcceptedAt)
	require.NotNil(t, patch.AcceptedBy)
	assert.Equal(t, actor, *patch.AcceptedBy)

	assert.Nil(t, patch.CompletedAt)
	assert.Nil(t, patch.CancelledAt)
	assert.Nil(t, patch.CancellationReason)
}

func TestBuildPatchComplete(t *testing.T) {
	actor := uuid.New()
	now := time.Now().UTC()

	patch := buildPatch(ActionComplete, actor, "", now)

	assert.Equal(t, models.OrderStatusCompleted, patch.NewStatus)
	require.NotNil(t, patch.CompletedAt)
	require.NotNil(t, patch.CompletedBy)
	assert.Equal(t, actor, *patch.CompletedBy)

	assert.Nil(t, patch.AcceptedAt)
	assert.Nil(t, patch.CancelledAt)
}

func TestBuildPatchReject(t *testing.T) {
	actor := uuid.New()
	now := time.Now().UTC()

	patch := buildPatch(ActionReject, actor, "out of stock", now)

	assert.Equal(t, models.OrderStatusCancelled, patch.NewStatus)
	require.NotNil(t, patch.CancelledAt)
	require.NotNil(t, patch.CancelledBy)
	require.NotNil(t, patch.CancellationReason)
	assert.Equal(t, "out of stock", *patch.CancellationReason)

	assert.Nil(t, patch.AcceptedAt)
	assert.Nil(t, patch.CompletedAt)
}

func TestBuildPatchRejectDefaultReason(t *testing.T) {
	patch := buildPatch(ActionReject, uuid.New(), "", time.Now().UTC())

	require.NotNil(t, patch.CancellationReason)
	assert.Equal(t, models.DefaultRejectReason, *patch.CancellationReason)
}
