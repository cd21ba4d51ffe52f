package model

import "time"

// Deal is a user-posted local offer.
type Deal struct {
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Vendor      string    `json:"vendor"`
	Address     string    `json:"address"`
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Price       float64   `json:"price"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// DealSubscription asks for alerts about deals near a point.
type DealSubscription struct {
	ID        int64
	UserID    int64
	Latitude  float64
	Longitude float64
}

// DealView composes a deal with its derived vote counts for display.
// The persisted Deal is never modified to carry these fields.
type DealView struct {
	Deal
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
}

// NewDealView builds the display form of a deal.
func NewDealView(deal Deal, upvotes, downvotes int) DealView {
	return DealView{
		Deal:      deal,
		Upvotes:   upvotes,
		Downvotes: downvotes,
		Score:     upvotes - downvotes,
	}
}
