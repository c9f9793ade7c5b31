package mcpserver

import "context"

type contextKey string

const userIDContextKey contextKey = "mcp_user_id"

// MissingUserContextError is returned when a tool invocation arrives
// without the x-user-id header.
type MissingUserContextError struct{}

func (MissingUserContextError) Error() string {
	return "missing x-user-id header"
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// userIDFromContext extracts the user id injected by the HTTP context
// function. The server never trusts a user id embedded in a tool's
// argument payload.
func userIDFromContext(ctx context.Context) (string, error) {
	v, _ := ctx.Value(userIDContextKey).(string)
	if v == "" {
		return "", MissingUserContextError{}
	}
	return v, nil
}
