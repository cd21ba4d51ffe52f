package model

import "time"

// Category groups ledger entries. A nil UserID marks a global category shared by everyone.
type Category struct {
	CreatedAt time.Time
	UserID    *int64
	Name      string
	Color     string
	ID        int64
}
