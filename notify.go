package auth

import "context"

// NotificationKind names a transactional email template.
type NotificationKind string

const (
	NotificationWelcome          NotificationKind = "welcome"
	NotificationAccountApproved  NotificationKind = "account.approved"
	NotificationAccountRejected  NotificationKind = "account.rejected"
	NotificationReferralCredited NotificationKind = "referral.credited"
)

// Notification is a fire-and-forget outbound email request keyed by
// user id and address. Delivery is an external collaborator; no auth
// operation awaits confirmation.
type Notification struct {
	Kind     NotificationKind
	UserID   string
	Email    string
	Name     string
	Metadata map[string]any
}

// Notifier accepts notifications for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
