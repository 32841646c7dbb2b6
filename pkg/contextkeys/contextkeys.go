package contextkeys

type contextKey string

const (
	UserClaimsKey contextKey = "UserClaims"
	SessionIDKey  contextKey = "SessionID"
)
