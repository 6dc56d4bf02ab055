package audit

import "context"

// Store persists audit events keyed by wallet address.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAddress(ctx context.Context, address string) ([]Event, error)
}
