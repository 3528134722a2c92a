package auth

import "context"

type contextKey string

const authContextKey contextKey = "shipsense_auth"

// AuthInfo identifies the API key a request was authenticated with.
type AuthInfo struct {
	// KeyID is a short, non-secret identifier derived from the key hash.
	KeyID string
}

func ContextWithAuth(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authContextKey, info)
}

func AuthFromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authContextKey).(*AuthInfo)
	return info, ok
}
