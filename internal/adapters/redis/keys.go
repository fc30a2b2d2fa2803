package redis

// Key patterns for Redis keys.
const (
	KeyPatternAccessToken     = "session:%s:accessToken"
	KeyPatternPurchaseSession = "purchase:%s:session"   // session id
	KeyPatternActiveSession   = "purchase:%s:%s:active" // subject, course id
	KeyPatternPurchaseOutcome = "purchase:%s:outcome"   // session id

	scanPatternPurchaseSessions = "purchase:*:session"
)
