package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "pending to completed", from: StatusPending, to: StatusCompleted, want: true},
		{name: "pending to failed", from: StatusPending, to: StatusFailed, want: true},
		{name: "pending to pending", from: StatusPending, to: StatusPending, want: false},
		{name: "completed never transitions", from: StatusCompleted, to: StatusFailed, want: false},
		{name: "failed never transitions", from: StatusFailed, to: StatusCompleted, want: false},
		{name: "terminal cannot reopen", from: StatusCompleted, to: StatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, Status("Sideways").Valid())
	assert.False(t, Status("").Valid())
}
