package model

import "time"

// NotificationKind tells which part of the engine produced a notification.
type NotificationKind string

const (
	// NotificationGoalMidPeriod is sent once a goal is 80% through its window.
	NotificationGoalMidPeriod NotificationKind = "goal_mid_period"
	// NotificationGoalPostPeriod is sent once a goal window has ended.
	NotificationGoalPostPeriod NotificationKind = "goal_post_period"
	// NotificationLevelUp is sent when a goal completion raises the user's level.
	NotificationLevelUp NotificationKind = "level_up"
	// NotificationRecurringReminder announces an upcoming recurring payment.
	NotificationRecurringReminder NotificationKind = "recurring_reminder"
	// NotificationDealAlert announces a new deal near the user.
	NotificationDealAlert NotificationKind = "deal_alert"
)

// Notification is a queued push message. Rows are written in the same
// storage transaction as the state change that produced them and are
// delivered afterwards by the dispatcher.
type Notification struct {
	CreatedAt    time.Time
	DispatchedAt *time.Time
	GoalID       *int64
	ID           string
	Kind         NotificationKind
	Title        string
	Body         string
	UserID       int64
	Delivered    int
	Failed       int
}

// DeviceToken is a push registration for one of the user's devices.
type DeviceToken struct {
	CreatedAt time.Time
	Token     string
	UserID    int64
}

// SendResult is the outcome of delivering one message to one device.
type SendResult struct {
	Err       error
	Token     string
	MessageID string
}

// OK reports whether the device accepted the message.
func (r SendResult) OK() bool {
	return r.Err == nil
}
