package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusNew, StatusOngoing))
	assert.True(t, CanTransition(StatusOngoing, StatusPaid))
	assert.True(t, CanTransition(StatusPaid, StatusPaid)) // no-op always ok

	assert.False(t, CanTransition(StatusNew, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusNew))
	assert.False(t, CanTransition(StatusOngoing, StatusNew))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("ONGOING")
	require.NoError(t, err)
	assert.Equal(t, StatusOngoing, s)

	_, err = ParseStatus("SHIPPED")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}
