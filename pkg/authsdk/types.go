package authsdk

import (
	"time"

	"github.com/zefruta/storefront/pkg/jwtx"
)

// User is the session record persisted next to the token: the decoded
// claims plus what the front-end derived at login time.
type User struct {
	jwtx.Claims

	// UserType is the normalized role the front-end routes on.
	UserType Role `json:"userType"`

	// OriginalType keeps the raw role hint as received (redirect parameter,
	// pending-login marker or token claim).
	OriginalType string `json:"originalType,omitempty"`

	SessionID string    `json:"sessionId"`
	LoginTime time.Time `json:"loginTime"`

	// Profile is the optional backend profile merged after login. It never
	// replaces the identity fields above.
	Profile map[string]any `json:"profile,omitempty"`
}

// Snapshot is a read-only view of the session state for diagnostics. It
// never carries the token itself.
type Snapshot struct {
	HasToken         bool   `json:"hasToken"`
	Valid            bool   `json:"valid"`
	Role             Role   `json:"role"`
	TokenFingerprint string `json:"tokenFingerprint,omitempty"`
	PendingLogin     string `json:"pendingLogin,omitempty"`
	User             *User  `json:"user,omitempty"`
}
