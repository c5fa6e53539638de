package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionToFollowsAllowedEdges(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusCompleted, StatusRefunded, true},

		{StatusPending, StatusRefunded, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusPending, false},
		{StatusRefunded, StatusCompleted, false},
		{StatusRefunded, StatusRefunded, false},
	}

	for _, tc := range cases {
		p := &Payment{Status: tc.from}
		err := p.TransitionTo(tc.to)
		if tc.ok {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.to, p.Status)
		} else {
			require.Error(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.from, p.Status, "status must not change on rejected transition")

			var invalid *ErrInvalidTransition
			assert.ErrorAs(t, err, &invalid)
		}
	}
}

func TestReplayedCompletionIsRejected(t *testing.T) {
	p := &Payment{Status: StatusPending}

	require.NoError(t, p.TransitionTo(StatusCompleted))
	assert.Error(t, p.TransitionTo(StatusCompleted))
}

func TestCanBeRefunded(t *testing.T) {
	assert.False(t, (&Payment{Status: StatusPending}).CanBeRefunded())
	assert.False(t, (&Payment{Status: StatusProcessing}).CanBeRefunded())
	assert.False(t, (&Payment{Status: StatusFailed}).CanBeRefunded())
	assert.False(t, (&Payment{Status: StatusRefunded}).CanBeRefunded())
	assert.True(t, (&Payment{Status: StatusCompleted}).CanBeRefunded())
}

func TestStatusPredicates(t *testing.T) {
	p := &Payment{Status: StatusCompleted, Amount: decimal.NewFromFloat(49.99)}

	assert.True(t, p.IsSuccessful())
	assert.False(t, p.IsRefunded())

	require.NoError(t, p.TransitionTo(StatusRefunded))
	assert.True(t, p.IsRefunded())
}
