//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRunMarker_AcquireRelease covers the marker lifecycle.
// Not parallel: the marker lives in the working directory.
func TestRunMarker_AcquireRelease(t *testing.T) {
	chdir(t, t.TempDir())

	ctx := context.Background()
	require.False(t, IsRunInProgress(ctx))
	require.NoError(t, AcquireRunMarker(ctx))

	// A fresh marker blocks a second run.
	require.True(t, IsRunInProgress(ctx))
	require.ErrorIs(t, AcquireRunMarker(ctx), ErrRunInProgress)

	ReleaseRunMarker()
	require.False(t, IsRunInProgress(ctx))
}
