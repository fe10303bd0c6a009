package auth

import "context"

// SetSpectatorForTest injects spectator claims into the context for testing purposes.
func SetSpectatorForTest(ctx context.Context, spectatorID, matchID string) context.Context {
	return WithClaims(ctx, &Claims{SpectatorID: spectatorID, MatchID: matchID})
}
