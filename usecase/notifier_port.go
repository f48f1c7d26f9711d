package usecase

import "context"

// EventNotifier abstracts the event side channel so use cases stay
// transport-agnostic. Publishing is best effort: a failure is logged by the
// caller and never fails or rolls back the triggering mutation.
type EventNotifier interface {
	Notify(ctx context.Context, eventType string, payload any) error
}
