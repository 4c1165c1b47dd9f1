/*
Package authsdk holds the front-end side of the marketplace login: the
session kept after an OAuth redirect, the authenticated request path to the
backend and the access decision for role-restricted pages.

# Overview

The backend performs the Google OAuth exchange and redirects back with a
signed JWT and a role hint. This package never sees credentials and never
verifies signatures; it stores the token, reads its claims for display and
routing, and attaches it to backend calls. The backend re-validates every
request.

# Components

  - SessionStore: the only reader and writer of the stored token, user record
    and pending-login marker. Build one per process and share it.
  - Callback: extracts the token from a redirect, cleans the address and
    commits the session.
  - Gateway: sends backend requests with the bearer token and ends the session
    on 401.
  - Guard: decides allow / redirect / loading for a page requiring a role.
  - Provider: runs the startup check and reports readiness to the guard.

Wiring:

	durable := sqliteStore      // Storage that survives restarts
	transient := memoryStore    // Storage lost on restart
	sessions := authsdk.NewSessionStore(durable, transient,
		authsdk.WithProfileFetcher(authsdk.NewAPIClient(apiURL)),
	)

	provider := authsdk.NewProvider(sessions, logger)
	provider.Start(ctx)

	cb := &authsdk.Callback{Store: sessions}
	result := cb.Handle(ctx, authsdk.NewURLLocation(redirectURL))

	guard := &authsdk.Guard{Store: sessions, Provider: provider}
	decision := guard.Evaluate(ctx, authsdk.RoleVendedor)

# Roles

Role hints are free text from the backend. NormalizeRole maps them onto the
closed set comprador, vendedor, entregador and admin. Anything unrecognised,
including an empty hint, becomes comprador.

# Expiry

A session is valid while a token is stored and its exp claim, when present,
is in the future. A token without exp stays valid until the backend answers
401 through the Gateway.

# Errors

  - ErrInvalidToken: Commit could not decode the token. Nothing was stored.
  - ErrTokenMissing: the redirect carried no token.
  - ErrSessionExpired: the backend rejected the token; the session is gone.
  - *StatusError: non-2xx answer from a helper that decodes bodies.

Example:

	resp, err := gateway.Do(ctx, http.MethodGet, "/orders", nil, nil)
	if errors.Is(err, authsdk.ErrSessionExpired) {
		// send the user back to the login page
	}
*/
package authsdk
