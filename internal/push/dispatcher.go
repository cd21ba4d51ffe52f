package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

const (
	// HealthcheckTitle is the title of the periodic test push.
	HealthcheckTitle = "Healthcheck"
	// HealthcheckBody is the body of the periodic test push.
	HealthcheckBody = "This is a test notification"

	defaultBatchSize = 100
)

// DispatchReport summarizes one dispatch pass.
type DispatchReport struct {
	Notifications int
	Delivered     int
	Failed        int
	NoDevices     int
	// LookupFailed counts notifications left queued because their owner's
	// devices could not be resolved.
	LookupFailed int
}

// Dispatcher drains the notification outbox through a PushGateway.
type Dispatcher struct {
	outbox    service.NotificationOutbox
	devices   service.DeviceDirectory
	gateway   service.PushGateway
	clock     service.Clock
	batchSize int
	mu        sync.Mutex
}

// NewDispatcher creates a dispatcher. A nil clock uses the system clock.
func NewDispatcher(outbox service.NotificationOutbox, devices service.DeviceDirectory, gateway service.PushGateway, clock service.Clock) *Dispatcher {
	if clock == nil {
		clock = service.SystemClock
	}
	return &Dispatcher{
		outbox:    outbox,
		devices:   devices,
		gateway:   gateway,
		clock:     clock,
		batchSize: defaultBatchSize,
	}
}

// DispatchPending sends every queued notification to its owner's devices
// and marks it dispatched. A notification is marked even when some or all
// devices reject it, so nothing is ever sent twice. A notification whose
// devices cannot be resolved stays queued for the next pass without holding
// up the rest. Only one pass runs at a time.
func (d *Dispatcher) DispatchPending(ctx context.Context) (DispatchReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var report DispatchReport
	deferred := make(map[string]bool)
	for {
		pending, err := d.outbox.ListPendingNotifications(ctx, d.batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to list pending notifications: %w", err)
		}
		if len(pending) == 0 {
			break
		}

		progressed := 0
		for _, n := range pending {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if deferred[n.ID] {
				continue
			}
			progressed++

			tokens, err := d.devices.TokensForUser(ctx, n.UserID)
			if err != nil {
				deferred[n.ID] = true
				report.LookupFailed++
				slog.Error("failed to resolve devices",
					"notification_id", n.ID,
					"user_id", n.UserID,
					"error", err)
				continue
			}

			delivered, failed := 0, 0
			if len(tokens) == 0 {
				report.NoDevices++
				slog.Debug("no devices registered", "notification_id", n.ID, "user_id", n.UserID)
			} else {
				delivered, failed = tally(d.gateway.Send(ctx, tokens, n.Title, n.Body))
			}

			if err := d.outbox.MarkNotificationDispatched(ctx, n.ID, delivered, failed, d.clock()); err != nil {
				return report, fmt.Errorf("failed to mark notification %s dispatched: %w", n.ID, err)
			}

			report.Notifications++
			report.Delivered += delivered
			report.Failed += failed
		}

		// Deferred rows come back on every fetch; stop once a batch holds nothing else.
		if len(pending) < d.batchSize || progressed == 0 {
			break
		}
	}

	if report.Notifications > 0 {
		slog.Info("dispatched notifications",
			"notifications", report.Notifications,
			"delivered", report.Delivered,
			"failed", report.Failed,
			"no_devices", report.NoDevices,
			"lookup_failed", report.LookupFailed)
	}
	return report, nil
}

// Broadcast sends a message to every registered device.
func (d *Dispatcher) Broadcast(ctx context.Context, title, body string) (DispatchReport, error) {
	tokens, err := d.devices.AllTokens(ctx)
	if err != nil {
		return DispatchReport{}, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(tokens) == 0 {
		return DispatchReport{}, common.ErrNoDevices
	}

	slog.Info("broadcasting notification", "devices", len(tokens), "title", title)
	delivered, failed := tally(d.gateway.Send(ctx, tokens, title, body))
	return DispatchReport{Notifications: 1, Delivered: delivered, Failed: failed}, nil
}

// Healthcheck broadcasts the test notification.
func (d *Dispatcher) Healthcheck(ctx context.Context) (DispatchReport, error) {
	return d.Broadcast(ctx, HealthcheckTitle, HealthcheckBody)
}

func tally(results []model.SendResult) (int, int) {
	delivered, failed := 0, 0
	for _, r := range results {
		if r.OK() {
			delivered++
		} else {
			failed++
		}
	}
	return delivered, failed
}
