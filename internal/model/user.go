package model

import "time"

// User carries the gamification counters the goal engine maintains.
// Identity and credentials live with the authentication service.
type User struct {
	CreatedAt time.Time
	Username  string
	FirstName string
	LastName  string
	ID        int64
	XP        int
	Level     int
}
