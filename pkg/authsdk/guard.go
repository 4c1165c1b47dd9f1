package authsdk

import "context"

// DefaultLoginPath is where unauthenticated visitors are sent.
const DefaultLoginPath = "/auth"

// Outcome is the result kind of a guard evaluation.
type Outcome int

const (
	// DecisionLoading means the initial session check has not finished;
	// render a loading indicator and nothing else.
	DecisionLoading Outcome = iota
	DecisionAllow
	DecisionRedirectUnauthenticated
	DecisionRedirectWrongRole
)

func (o Outcome) String() string {
	switch o {
	case DecisionLoading:
		return "loading"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectUnauthenticated:
		return "redirect_unauthenticated"
	case DecisionRedirectWrongRole:
		return "redirect_wrong_role"
	default:
		return "unknown"
	}
}

// Decision is what the guard wants done with a request. Location is set for
// redirects only.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Readiness reports whether the initial session check has completed.
type Readiness interface {
	Ready() bool
}

// Guard gates role-restricted pages on the current session.
type Guard struct {
	Store     *SessionStore
	Provider  Readiness
	LoginPath string
}

// Evaluate decides access for a page requiring role. An empty role accepts
// any valid session. It reads the store every time so a session change made
// anywhere is picked up on the next evaluation.
func (g *Guard) Evaluate(ctx context.Context, required Role) Decision {
	if g.Provider != nil && !g.Provider.Ready() {
		return Decision{Outcome: DecisionLoading}
	}

	if !g.Store.IsValid(ctx) {
		login := g.LoginPath
		if login == "" {
			login = DefaultLoginPath
		}
		return Decision{Outcome: DecisionRedirectUnauthenticated, Location: login}
	}

	if required != "" {
		actual := g.Store.Role(ctx)
		if actual != required {
			target, ok := DashboardPath(actual)
			if !ok {
				target = "/"
			}
			return Decision{Outcome: DecisionRedirectWrongRole, Location: target}
		}
	}

	return Decision{Outcome: DecisionAllow}
}
