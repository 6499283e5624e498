// ABOUTME: Tests for the badger-backed session marker
// ABOUTME: Login/logout lifecycle and persistence across reopen
package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStartsUnauthenticated(t *testing.T) {
	s, err := OpenSession(t.TempDir(), "brevetti")
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Authenticated())
	assert.NotEmpty(t, s.DeviceID())
}

func TestLoginChecksPasswordCaseInsensitively(t *testing.T) {
	s, err := OpenSession(t.TempDir(), "brevetti")
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Login("sbagliata"), ErrBadPassword)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Login("BREVETTI"))
	assert.True(t, s.Authenticated())
}

func TestSessionPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenSession(dir, "brevetti")
	require.NoError(t, err)
	require.NoError(t, s.Login("brevetti"))
	device := s.DeviceID()
	require.NoError(t, s.Close())

	s, err = OpenSession(dir, "brevetti")
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Authenticated(), "the persisted marker survives a restart")
	assert.Equal(t, device, s.DeviceID())
}

func TestLogoutClearsMarker(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenSession(dir, "brevetti")
	require.NoError(t, err)
	require.NoError(t, s.Login("brevetti"))
	require.NoError(t, s.Logout())
	assert.False(t, s.Authenticated())
	require.NoError(t, s.Close())

	s, err = OpenSession(dir, "brevetti")
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.Authenticated())
}
