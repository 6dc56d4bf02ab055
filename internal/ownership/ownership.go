// Package ownership records which credential collections a wallet holds.
package ownership

import (
	"context"
	"time"
)

// Credential is one collection held by an address. Pending entries were
// recorded on mint submission and carry a placeholder token ID until the
// chain confirms them.
type Credential struct {
	Address      string    `json:"address"`
	CollectionID string    `json:"collection_id"`
	TokenID      string    `json:"token_id"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Pending      bool      `json:"pending"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// PendingTokenID is the placeholder recorded before a mint is indexed.
func PendingTokenID(txHash string) string {
	return "pending-" + txHash
}

// Store persists credentials keyed by lower-cased address and collection ID.
type Store interface {
	Put(ctx context.Context, c Credential) error
	// Get returns sentinel.ErrNotFound when the address does not hold the collection.
	Get(ctx context.Context, address, collectionID string) (Credential, error)
	// List returns every credential held by address, ordered by collection ID.
	List(ctx context.Context, address string) ([]Credential, error)
}

// TokenMap flattens credentials into collection ID → token ID.
func TokenMap(creds []Credential) map[string]string {
	out := make(map[string]string, len(creds))
	for _, c := range creds {
		out[c.CollectionID] = c.TokenID
	}
	return out
}
