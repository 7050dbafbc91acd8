package driven

import "github.com/ericfisherdev/brainpanel/internal/domain/model"

// Notifier shows a user-facing message. Delivery is fire-and-forget: there
// is no return value and no acknowledgment.
type Notifier interface {
	Notify(n model.Notification)
}
