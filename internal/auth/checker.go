package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

type Checker interface {
	// LoggedUserID resolves a session token to the logged in user ID.
	LoggedUserID(ctx context.Context, token string) (int, error)
}
