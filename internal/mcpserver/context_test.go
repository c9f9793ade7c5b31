package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserIDFromContextReturnsInjectedValue(t *testing.T) {
	ctx := withUserID(context.Background(), "user-123")
	userID, err := userIDFromContext(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

func TestUserIDFromContextMissingHeaderErrors(t *testing.T) {
	_, err := userIDFromContext(context.Background())
	require.ErrorIs(t, err, MissingUserContextError{})
}

func TestUserIDFromContextEmptyStringTreatedAsMissing(t *testing.T) {
	ctx := withUserID(context.Background(), "")
	_, err := userIDFromContext(ctx)
	require.Error(t, err)
}
