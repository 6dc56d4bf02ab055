// Package dashboard joins the collection catalog, credential ownership and
// each wallet's verification session into the view the dashboard renders.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"credmint/internal/audit"
	"credmint/internal/chain"
	"credmint/internal/collections"
	"credmint/internal/ownership"
	"credmint/internal/proof"
	"credmint/internal/session"
	dErrors "credmint/pkg/domain-errors"
)

const defaultMintTimeout = time.Minute

// Minter is the credential side the dashboard drives.
type Minter interface {
	Mint(ctx context.Context, address string, accepted proof.Accepted, collectionID string) (ownership.Credential, error)
	Owned(ctx context.Context, address string) ([]ownership.Credential, error)
	HasValidKYC(ctx context.Context, address string) (bool, error)
}

// Session is the controller surface the dashboard needs.
type Session interface {
	Start(ctx context.Context, provider string) error
	Cancel()
	Snapshot() session.Snapshot
}

// SessionLookup returns the session for a lowercased wallet address.
type SessionLookup func(address string) Session

// OwnedCollection is a catalog entry the wallet holds a credential for.
type OwnedCollection struct {
	collections.Collection
	TokenID string `json:"token_id"`
	TxHash  string `json:"tx_hash,omitempty"`
	Pending bool   `json:"pending"`
}

// View is everything the dashboard page shows for one wallet.
type View struct {
	Address   string                   `json:"address"`
	Owned     []OwnedCollection        `json:"owned"`
	Available []collections.Collection `json:"available"`
	Session   session.Snapshot         `json:"session"`
	Verifying string                   `json:"verifying,omitempty"`
	// Error is the banner message; it stays until Cancel or the next Verify.
	Error string `json:"error,omitempty"`
	// Overlay is shown while waiting on the companion device and briefly
	// after success.
	Overlay bool `json:"overlay"`
}

// Verification is the state of the wallet's current verification.
type Verification struct {
	Session   session.Snapshot `json:"session"`
	Verifying string           `json:"verifying,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// AuditLog lists a wallet's verification and mint events.
type AuditLog interface {
	List(ctx context.Context, address string) ([]audit.Event, error)
}

type Service struct {
	catalog  *collections.Catalog
	minter   Minter
	sessions SessionLookup
	auditLog AuditLog

	mintTimeout time.Duration
	logger      *slog.Logger

	mu        sync.Mutex
	verifying map[string]verifying
	mintErr   map[string]string
}

// verifying ties the collection a wallet asked for to the provider whose
// proof may mint it.
type verifying struct {
	collectionID string
	provider     string
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAuditLog(l AuditLog) Option {
	return func(s *Service) { s.auditLog = l }
}

// WithMintTimeout bounds the mint submission made from the verified hook.
func WithMintTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mintTimeout = d
		}
	}
}

func NewService(catalog *collections.Catalog, minter Minter, sessions SessionLookup, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		minter:      minter,
		sessions:    sessions,
		mintTimeout: defaultMintTimeout,
		logger:      slog.Default(),
		verifying:   make(map[string]verifying),
		mintErr:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Collections() []collections.Collection {
	return s.catalog.All()
}

func normalize(address string) (string, error) {
	if _, err := chain.ParseAddress(address); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid wallet address")
	}
	return strings.ToLower(address), nil
}

// View splits the catalog into held and available collections and attaches
// the wallet's session state.
func (s *Service) View(ctx context.Context, address string) (*View, error) {
	addr, err := normalize(address)
	if err != nil {
		return nil, err
	}
	creds, err := s.minter.Owned(ctx, addr)
	if err != nil {
		return nil, err
	}
	byCollection := make(map[string]ownership.Credential, len(creds))
	for _, c := range creds {
		byCollection[c.CollectionID] = c
	}
	have, missing := s.catalog.Split(ownership.TokenMap(creds))

	v := &View{
		Address:   addr,
		Owned:     make([]OwnedCollection, 0, len(have)),
		Available: missing,
	}
	for _, c := range have {
		cred := byCollection[c.ID]
		v.Owned = append(v.Owned, OwnedCollection{
			Collection: c,
			TokenID:    cred.TokenID,
			TxHash:     cred.TxHash,
			Pending:    cred.Pending,
		})
	}

	status := s.Status(addr)
	v.Session, v.Verifying, v.Error = status.Session, status.Verifying, status.Error
	v.Overlay = v.Session.Status == session.StatusAwaitingMobile || v.Session.IsVerified
	return v, nil
}

// Status reports the session snapshot and the collection being verified.
// A verification that ended without a proof no longer counts as verifying.
func (s *Service) Status(address string) Verification {
	addr := strings.ToLower(address)
	snap := s.sessions(addr).Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := Verification{Session: snap, Error: snap.Error}
	if out.Error == "" {
		out.Error = s.mintErr[addr]
	}
	if snap.Status.InFlight() || snap.IsVerified {
		out.Verifying = s.verifying[addr].collectionID
	}
	return out
}

// Verify starts a verification for collectionID using its verification
// method as the provider. Failures of the attempt itself are reported in
// the returned state, not as an error.
func (s *Service) Verify(ctx context.Context, address, collectionID string) (Verification, error) {
	addr, err := normalize(address)
	if err != nil {
		return Verification{}, err
	}
	collection, ok := s.catalog.Get(collectionID)
	if !ok {
		return Verification{}, dErrors.New(dErrors.CodeUnknownCollection, "unknown collection: "+collectionID)
	}
	creds, err := s.minter.Owned(ctx, addr)
	if err != nil {
		return Verification{}, err
	}
	if _, held := ownership.TokenMap(creds)[collection.ID]; held {
		return Verification{}, dErrors.New(dErrors.CodeConflict, "credential already held for "+collection.ID)
	}

	s.mu.Lock()
	s.verifying[addr] = verifying{collectionID: collection.ID, provider: collection.Method.String()}
	delete(s.mintErr, addr)
	s.mu.Unlock()

	err = s.sessions(addr).Start(ctx, collection.Method.String())
	switch {
	case err == nil, errors.Is(err, session.ErrSuperseded):
	case errors.Is(err, session.ErrClosed):
		s.clearVerifying(addr, collection.ID)
		return Verification{}, dErrors.New(dErrors.CodeUnavailable, "verification is shutting down")
	default:
		s.clearVerifying(addr, collection.ID)
		s.logger.WarnContext(ctx, "verification could not start",
			"address", addr,
			"collection", collection.ID,
			"error", err,
		)
	}
	return s.Status(addr), nil
}

func (s *Service) clearVerifying(addr, collectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifying[addr].collectionID == collectionID {
		delete(s.verifying, addr)
	}
}

// Cancel abandons the wallet's verification and clears any banner.
func (s *Service) Cancel(_ context.Context, address string) (Verification, error) {
	addr, err := normalize(address)
	if err != nil {
		return Verification{}, err
	}
	s.sessions(addr).Cancel()

	s.mu.Lock()
	delete(s.verifying, addr)
	delete(s.mintErr, addr)
	s.mu.Unlock()
	return s.Status(addr), nil
}

func (s *Service) HasValidKYC(ctx context.Context, address string) (bool, error) {
	addr, err := normalize(address)
	if err != nil {
		return false, err
	}
	return s.minter.HasValidKYC(ctx, addr)
}

// History returns the wallet's recorded events, oldest first.
func (s *Service) History(ctx context.Context, address string) ([]audit.Event, error) {
	addr, err := normalize(address)
	if err != nil {
		return nil, err
	}
	if s.auditLog == nil {
		return []audit.Event{}, nil
	}
	events, err := s.auditLog.List(ctx, addr)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return events, nil
}

// HandleVerified is the controllers' verified hook: it mints the collection
// the wallet was verifying, provided the proof came from that collection's
// provider. A proof from any other provider mints nothing and leaves the
// pending verification in place.
func (s *Service) HandleVerified(v session.Verified) {
	addr := strings.ToLower(v.Address)
	s.mu.Lock()
	pending, ok := s.verifying[addr]
	if ok && pending.provider == v.Provider {
		delete(s.verifying, addr)
	}
	s.mu.Unlock()
	switch {
	case !ok:
		s.logger.Warn("verified attempt without a collection, not minting",
			"address", addr,
			"attempt_id", v.AttemptID,
		)
		return
	case pending.provider != v.Provider:
		s.logger.Warn("verified provider does not match the pending collection, not minting",
			"address", addr,
			"attempt_id", v.AttemptID,
			"provider", v.Provider,
			"collection", pending.collectionID,
		)
		return
	}
	collectionID := pending.collectionID

	ctx, cancel := context.WithTimeout(context.Background(), s.mintTimeout)
	defer cancel()
	cred, err := s.minter.Mint(ctx, addr, v.Proof, collectionID)
	if err != nil {
		msg := "Minting failed"
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) && domainErr.Message != "" {
			msg += ": " + domainErr.Message
		}
		s.mu.Lock()
		s.mintErr[addr] = msg
		s.mu.Unlock()
		s.logger.Error("mint after verification failed",
			"address", addr,
			"collection", collectionID,
			"attempt_id", v.AttemptID,
			"error", err,
		)
		return
	}
	s.logger.Info("credential minted after verification",
		"address", addr,
		"collection", collectionID,
		"attempt_id", v.AttemptID,
		"token_id", cred.TokenID,
	)
}
