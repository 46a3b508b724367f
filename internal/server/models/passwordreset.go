package models

import "time"

type PasswordReset struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	Used      bool
	CreatedAt time.Time
}
