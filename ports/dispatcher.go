package ports

import "context"

// MessageDispatcher hands a plaintext code off for delivery over SMS.
// Delivery is fire-and-forget from this core's perspective; a dispatch
// failure is reported but never rolls back the stored record.
type MessageDispatcher interface {
	Send(ctx context.Context, phone, code string) error
}
