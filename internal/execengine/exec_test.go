package execengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeForSuccess(t *testing.T) {
	require.Equal(t, "success", outcomeFor(0))
}

func TestOutcomeForNonZeroExit(t *testing.T) {
	require.Equal(t, "error", outcomeFor(1))
	require.Equal(t, "error", outcomeFor(127))
}

func TestTimeoutSentinelIsDocumentedAndNonZero(t *testing.T) {
	require.NotZero(t, TimeoutExitCode)
	require.Equal(t, 124, TimeoutExitCode)
}

func TestDefaultTimeoutIsThirtySeconds(t *testing.T) {
	require.Equal(t, "30s", DefaultTimeout.String())
}
