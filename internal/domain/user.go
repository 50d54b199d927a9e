package domain

import "time"

// User is a local account. Rows are created either by explicit registration
// (with a password hash) or provisioned on first SSO/directory resolution
// (no password hash, IsExternal=true). Never deleted by this service.
type User struct {
	ID           string
	AccountName  string
	PasswordHash *string
	DisplayName  string
	IsExternal   bool
	CreatedAt    time.Time
}
