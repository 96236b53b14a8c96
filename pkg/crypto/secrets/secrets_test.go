package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealRoundTrip(t *testing.T) {
	s := NewSealer("correct horse battery staple")

	sealed, err := s.Seal("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", sealed)

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", opened)
}

func TestSealIsNonDeterministic(t *testing.T) {
	s := NewSealer("key")

	a, err := s.Seal("secret")
	require.NoError(t, err)

	b, err := s.Seal("secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpenWrongKeyFails(t *testing.T) {
	sealed, err := NewSealer("key-one").Seal("secret")
	require.NoError(t, err)

	_, err = NewSealer("key-two").Open(sealed)
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	s := NewSealer("key")

	_, err := s.Open("not base64 at all!!!")
	assert.Error(t, err)

	_, err = s.Open("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.ErrorIs(t, err, ErrSealedTooShort)
}
