package authsdk

import "context"

// Storage is the key/value backend the SessionStore persists into. A missing
// key is reported with ok=false, not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Storage keys. Token and user live in durable storage, the pending-login
// marker in transient storage.
const (
	TokenKey        = "zefruta_auth_token"
	UserKey         = "zefruta_user_data"
	PendingLoginKey = "zefruta_login_type"
)
