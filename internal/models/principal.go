package models

// Principal is the authenticated user behind a request
type Principal struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"-"`
}
