package domain

import "time"

// Account identifies one authenticated mailbox. The ID doubles as the
// keyring entry name for the account's OAuth token.
type Account struct {
	ID          string
	Email       string
	Provider    string
	DisplayName string
	CreatedAt   time.Time
}
