package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer([]byte("secret"))
	require.NoError(t, err)

	sealed, err := s.Seal("bearer-token")
	require.NoError(t, err)
	assert.NotEqual(t, "bearer-token", sealed)

	again, err := s.Seal("bearer-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", plain)
}

func TestSealer_RejectsForeignValues(t *testing.T) {
	a, err := NewSealer([]byte("secret-a"))
	require.NoError(t, err)
	b, err := NewSealer([]byte("secret-b"))
	require.NoError(t, err)

	sealed, err := a.Seal("tok")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrSealed)

	_, err = a.Open("not-base64!")
	assert.ErrorIs(t, err, ErrSealed)

	_, err = a.Open("c2hvcnQ")
	assert.ErrorIs(t, err, ErrSealed)
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer(nil)
	require.Error(t, err)
}
