package entities

import "time"

// User is a trainee identified by an externally issued platform id. The id
// is never generated here and no two users share one.
type User struct {
	ID        int64
	Username  string
	IsAdmin   bool
	IsTracked bool
	AddedAt   time.Time
	Notes     string
}

func NewUser(id int64, username string) *User {
	return &User{
		ID:       id,
		Username: username,
		AddedAt:  time.Now(),
	}
}
