package domain

// AuthSession is the authenticated user session the purchase workflow runs under.
// It replaces ad hoc lookups of the stored access token.
type AuthSession struct {
	Subject     string
	AccessToken string
}

// Valid reports whether the session carries a bearer token.
func (a AuthSession) Valid() bool {
	return a.AccessToken != ""
}
