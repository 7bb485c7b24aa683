package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("run-1", "runs/run-1/term_timeline.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	runID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "run-1", runID)
	require.Equal(t, "runs/run-1/term_timeline.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("run-1", "runs/run-1/term_timeline.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	runID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "run-1", runID)
	require.Equal(t, "runs/run-1/term_timeline.csv", path)
}

func TestSignedURLSignerRejectsForeignSecret(t *testing.T) {
	token, _, err := NewSignedURLSigner("secret", time.Hour).Generate("run-1", "a.csv")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	require.Error(t, err)
}
