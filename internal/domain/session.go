package domain

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Session is the request-scoped context handed to every service call.
// A nil Actor means the request is unauthenticated.
type Session struct {
	Actor     *Actor
	IPAddress string
	UserAgent string
	// APIKeyID and Scopes are set when the request authenticated with an API key.
	APIKeyID string
	Scopes   []string
}

// Authenticated reports whether an actor is attached.
func (s Session) Authenticated() bool {
	return s.Actor != nil && s.Actor.ID != ""
}

// HasScope reports whether an API-key session carries the scope.
// Sessions established through a user token are not scope-limited.
func (s Session) HasScope(scope string) bool {
	if s.APIKeyID == "" {
		return true
	}
	for _, granted := range s.Scopes {
		if granted == scope || granted == "*" {
			return true
		}
	}
	return false
}
