// Package deals sends proximity alerts for newly posted deals.
package deals

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

const (
	// EarthRadiusKm is the mean Earth radius used for distances.
	EarthRadiusKm = 6371.0
	// AlertRadiusKm is how close a subscription must be to hear about a deal.
	AlertRadiusKm = 100.0

	// AlertTitle is the push title of a deal alert.
	AlertTitle = "New Deal Alert!"
)

// DistanceKm returns the great-circle distance between two points using the
// haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// AlertMessage is the body of a deal alert.
func AlertMessage(deal *model.Deal) string {
	return fmt.Sprintf("A new deal at %s has been posted near you!", deal.Vendor)
}

// Alerter queues alerts for subscribers near a new deal.
type Alerter struct {
	store service.DealStore
}

// NewAlerter creates an alerter backed by store.
func NewAlerter(store service.DealStore) *Alerter {
	return &Alerter{store: store}
}

// NotifyNewDeal queues one alert per user with a subscription within
// AlertRadiusKm of the deal. The poster is never alerted about their own
// deal. It returns the users alerted.
func (a *Alerter) NotifyNewDeal(ctx context.Context, dealID int64) ([]int64, error) {
	var notified []int64

	err := a.store.WithTx(ctx, func(tx service.Tx) error {
		deal, err := tx.GetDeal(ctx, dealID)
		if err != nil {
			return err
		}

		subs, err := tx.ListDealSubscriptions(ctx)
		if err != nil {
			return err
		}

		seen := make(map[int64]bool)
		for _, sub := range subs {
			if sub.UserID == deal.UserID || seen[sub.UserID] {
				continue
			}
			if DistanceKm(deal.Latitude, deal.Longitude, sub.Latitude, sub.Longitude) > AlertRadiusKm {
				continue
			}
			seen[sub.UserID] = true

			if err := tx.EnqueueNotification(ctx, &model.Notification{
				UserID: sub.UserID,
				Kind:   model.NotificationDealAlert,
				Title:  AlertTitle,
				Body:   AlertMessage(deal),
			}); err != nil {
				return err
			}
			notified = append(notified, sub.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to alert subscribers of deal %d: %w", dealID, err)
	}

	slog.Info("queued deal alerts", "deal_id", dealID, "users", len(notified))
	return notified, nil
}
