package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	token, expiresAt, err := signer.Generate("meal-1", "2025/01/meal-1.jpg")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	recordID, relPath, _, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "meal-1", recordID)
	assert.Equal(t, "2025/01/meal-1.jpg", relPath)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	token, _, err := signer.Generate("meal-1", "2025/01/meal-1.jpg")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "x")
	assert.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Hour)
	_, _, _, err = other.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRejectsExpired(t *testing.T) {
	signer := &SignedURLSigner{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := signer.Generate("meal-1", "photo.jpg")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	assert.Error(t, err)
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	_, _, err := signer.Generate("", "photo.jpg")
	assert.Error(t, err)

	_, _, err = signer.Generate("meal-1", "")
	assert.Error(t, err)
}
