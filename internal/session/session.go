package session

// User is the cached profile returned by the backend.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
}

// Session is the credential pair plus the profile it belongs to. An absent
// access token means "not authenticated" regardless of the refresh token.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}
