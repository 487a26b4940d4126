package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings checks that the manifest form is embedded in the CLI form.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), Commit)
}
