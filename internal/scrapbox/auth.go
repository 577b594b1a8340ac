package scrapbox

import (
	"context"
	"fmt"

	"github.com/vburojevic/scrapbox-clip/internal/result"
)

// GetProfile fetches the current user for sess.
func (c *Client) GetProfile(ctx context.Context, sess *Session) result.Result[User] {
	return result.MapAsync(ctx, c.get(ctx, "/api/users/me", sess), decodeJSON[User])
}

// CSRFToken returns the session's token without touching the network when it
// is already known, and otherwise derives it from the profile.
func (c *Client) CSRFToken(ctx context.Context, sess *Session) result.Result[string] {
	if tok, ok := sess.CSRF(); ok {
		return result.Ok(tok)
	}
	r := result.Map(c.GetProfile(ctx, sess), func(u User) string { return u.CSRFToken })
	if tok, err := r.Get(); err == nil && tok != "" {
		sess.SetCSRF(tok)
	}
	return r
}

// CheckLogin returns the logged-in user or an error. This is where profile
// Results turn into plain errors for callers.
func (c *Client) CheckLogin(ctx context.Context, sess *Session) (User, error) {
	r := c.GetProfile(ctx, sess)
	if result.IsErr(r) {
		return User{}, fmt.Errorf("%w: %w", ErrProfileUnavailable, result.UnwrapErr(r))
	}
	u := result.UnwrapOk(r)
	if !u.IsMember() {
		return u, ErrNotLoggedIn
	}
	if u.CSRFToken != "" {
		sess.SetCSRF(u.CSRFToken)
	}
	c.Logger.Debug().Str("user", u.Name).Msg("profile verified")
	return u, nil
}
