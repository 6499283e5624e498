// ABOUTME: Tests for the in-flight record state machine
// ABOUTME: Validates legal and illegal transitions
package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegalTransitions(t *testing.T) {
	legal := []struct{ from, to State }{
		{StateIdle, StateCapturing},
		{StateIdle, StateExtracting},
		{StateIdle, StateReviewing},
		{StateCapturing, StateExtracting},
		{StateCapturing, StateIdle},
		{StateExtracting, StateReviewing},
		{StateExtracting, StateIdle},
		{StateReviewing, StateEditing},
		{StateReviewing, StateIdle},
		{StateEditing, StateReviewing},
		{StateEditing, StateIdle},
	}
	for _, tc := range legal {
		assert.True(t, tc.from.canMove(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIllegalTransitions(t *testing.T) {
	illegal := []struct{ from, to State }{
		{StateIdle, StateEditing},
		{StateCapturing, StateReviewing},
		{StateCapturing, StateEditing},
		{StateExtracting, StateEditing},
		{StateExtracting, StateCapturing},
		{StateReviewing, StateExtracting},
		{StateReviewing, StateCapturing},
		{StateEditing, StateExtracting},
		{StateEditing, StateCapturing},
	}
	for _, tc := range illegal {
		assert.False(t, tc.from.canMove(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "extracting", StateExtracting.String())
	assert.Equal(t, "editing", StateEditing.String())
}
