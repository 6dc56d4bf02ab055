// Package mint turns validated proofs into credential NFTs and keeps the
// local view of which collections a wallet holds in step with the chain.
package mint

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"path"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"credmint/internal/audit"
	"credmint/internal/chain"
	"credmint/internal/collections"
	"credmint/internal/ownership"
	"credmint/internal/platform/metrics"
	"credmint/internal/platform/tracer"
	"credmint/internal/proof"
	"credmint/internal/sentinel"
	dErrors "credmint/pkg/domain-errors"
	"credmint/pkg/platform/circuit"
	"credmint/pkg/platform/keylock"
)

// maxTokensPerOwner bounds how many tokens Reconcile will enumerate.
const maxTokensPerOwner = 256

// CredentialContract is the credential NFT surface the coordinator needs.
type CredentialContract interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index *big.Int) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	Mint(ctx context.Context, to common.Address, proof string) (common.Hash, error)
}

// KYCVault answers whether an address holds a KYC credential the vault accepts.
type KYCVault interface {
	HasValidKYCNFT(ctx context.Context, user common.Address) (bool, error)
}

type Coordinator struct {
	contract CredentialContract
	vault    KYCVault
	store    ownership.Store
	catalog  *collections.Catalog
	breaker  *circuit.Breaker
	locks    *keylock.Sharded

	clock       clock.Clock
	concurrency int
	logger      *slog.Logger
	tracer      tracer.Tracer
	metrics     *metrics.Metrics
	auditor     *audit.Publisher
}

type Option func(*Coordinator)

func WithVault(v KYCVault) Option {
	return func(c *Coordinator) { c.vault = v }
}

// WithBreaker guards chain reads; while open, ownership is served from the store.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Coordinator) { c.breaker = b }
}

func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) { c.clock = clk }
}

// WithReadConcurrency bounds parallel token reads during Reconcile.
func WithReadConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithAuditor(p *audit.Publisher) Option {
	return func(c *Coordinator) { c.auditor = p }
}

func New(contract CredentialContract, store ownership.Store, catalog *collections.Catalog, opts ...Option) *Coordinator {
	c := &Coordinator{
		contract:    contract,
		store:       store,
		catalog:     catalog,
		locks:       keylock.New(),
		clock:       clock.New(),
		concurrency: 4,
		logger:      slog.Default(),
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mint submits one mint(to, proof) for collectionID and records an
// optimistic pending credential. If the address already holds the
// collection nothing is submitted and the existing entry is returned.
func (c *Coordinator) Mint(ctx context.Context, address string, accepted proof.Accepted, collectionID string) (cred ownership.Credential, err error) {
	if accepted.IsZero() {
		return ownership.Credential{}, dErrors.New(dErrors.CodeInvalidInput, "proof has not been validated")
	}
	to, err := chain.ParseAddress(address)
	if err != nil {
		return ownership.Credential{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid wallet address")
	}
	if _, ok := c.catalog.Get(collectionID); !ok {
		return ownership.Credential{}, dErrors.New(dErrors.CodeUnknownCollection, "unknown collection: "+collectionID)
	}
	owner := strings.ToLower(address)

	// One mint per wallet and collection at a time; a second caller sees the
	// first caller's pending credential.
	unlock := c.locks.Lock(owner + "/" + collectionID)
	defer unlock()

	existing, err := c.store.Get(ctx, owner, collectionID)
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "credential already held, skipping mint",
			"address", owner,
			"collection", collectionID,
			"token_id", existing.TokenID,
		)
		return existing, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return ownership.Credential{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ownership")
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanMint,
		tracer.String(tracer.AttrCollection, collectionID),
		tracer.String(tracer.AttrAddress, tracer.ShortAddress(owner)),
	)
	defer func() { span.End(err) }()

	start := c.clock.Now()
	hash, err := c.contract.Mint(ctx, to, accepted.String())
	c.metrics.ObserveMint(collectionID, c.clock.Since(start), err)
	if err != nil {
		c.auditor.Emit(ctx, audit.Event{
			Address:    owner,
			Action:     audit.ActionMintFailed,
			Collection: collectionID,
			Reason:     err.Error(),
		})
		c.logger.ErrorContext(ctx, "credential mint failed",
			"address", owner,
			"collection", collectionID,
			"error", err,
		)
		return ownership.Credential{}, dErrors.Wrap(err, dErrors.CodeMintFailed, "credential mint failed")
	}
	span.SetAttributes(tracer.String(tracer.AttrTxHash, hash.Hex()))

	cred = ownership.Credential{
		Address:      owner,
		CollectionID: collectionID,
		TokenID:      ownership.PendingTokenID(hash.Hex()),
		TxHash:       hash.Hex(),
		Pending:      true,
		RecordedAt:   c.clock.Now(),
	}
	if err := c.store.Put(ctx, cred); err != nil {
		// the transaction is out; Reconcile will pick the token up from the chain
		c.logger.ErrorContext(ctx, "failed to record pending credential",
			"address", owner,
			"collection", collectionID,
			"tx_hash", hash.Hex(),
			"error", err,
		)
	}
	c.auditor.Emit(ctx, audit.Event{
		Address:    owner,
		Action:     audit.ActionMintSubmitted,
		Collection: collectionID,
		TxHash:     hash.Hex(),
	})
	c.logger.InfoContext(ctx, "credential mint submitted",
		"address", owner,
		"collection", collectionID,
		"tx_hash", hash.Hex(),
	)
	return cred, nil
}

// Owned returns the credentials held by address, reconciling with the chain
// when it is reachable and falling back to the local store when not.
func (c *Coordinator) Owned(ctx context.Context, address string) ([]ownership.Credential, error) {
	if _, err := chain.ParseAddress(address); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid wallet address")
	}
	if c.breaker == nil || c.breaker.Allow() {
		creds, err := c.Reconcile(ctx, address)
		if err == nil {
			return creds, nil
		}
		c.logger.WarnContext(ctx, "ownership reconcile failed, serving local view",
			"address", strings.ToLower(address),
			"error", err,
		)
	}
	c.metrics.IncChainFallback()
	creds, err := c.store.List(ctx, address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ownership")
	}
	return creds, nil
}

// Reconcile reads the address's tokens from the credential contract and
// records every token whose metadata URI names a catalog collection. Pending
// entries for those collections are replaced by the confirmed token ID.
func (c *Coordinator) Reconcile(ctx context.Context, address string) (creds []ownership.Credential, err error) {
	owner, err := chain.ParseAddress(address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid wallet address")
	}
	key := strings.ToLower(address)

	ctx, span := c.tracer.Start(ctx, tracer.SpanReconcile,
		tracer.String(tracer.AttrAddress, tracer.ShortAddress(key)),
	)
	defer func() { span.End(err) }()

	found, err := c.readTokens(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "credential contract unavailable")
	}
	span.SetAttributes(tracer.Int64(tracer.AttrTokens, int64(len(found))))

	now := c.clock.Now()
	for collectionID, tokenID := range found {
		if err := c.store.Put(ctx, ownership.Credential{
			Address:      key,
			CollectionID: collectionID,
			TokenID:      tokenID,
			RecordedAt:   now,
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ownership")
		}
	}

	creds, err = c.store.List(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ownership")
	}
	return creds, nil
}

type token struct {
	index      int
	id         string
	collection string
}

// readTokens maps collection ID to the lowest-indexed token naming it.
func (c *Coordinator) readTokens(ctx context.Context, owner common.Address) (map[string]string, error) {
	balance, err := c.contract.BalanceOf(ctx, owner)
	if err != nil {
		c.chainFailed("balanceOf")
		return nil, err
	}
	n := int(min(balance.Int64(), maxTokensPerOwner))
	if balance.Int64() > maxTokensPerOwner {
		c.logger.WarnContext(ctx, "owner holds more tokens than will be enumerated",
			"balance", balance.String(),
			"limit", maxTokensPerOwner,
		)
	}

	tokens := make([]token, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range n {
		g.Go(func() error {
			id, err := c.contract.TokenOfOwnerByIndex(gctx, owner, big.NewInt(int64(i)))
			if err != nil {
				c.chainFailed("tokenOfOwnerByIndex")
				return err
			}
			uri, err := c.contract.TokenURI(gctx, id)
			if err != nil {
				c.chainFailed("tokenURI")
				return err
			}
			tokens[i] = token{index: i, id: id.String(), collection: CollectionFromURI(uri)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.chainRecovered()

	found := make(map[string]string)
	for _, t := range tokens {
		if _, known := c.catalog.Get(t.collection); !known {
			continue
		}
		if _, seen := found[t.collection]; !seen {
			found[t.collection] = t.id
		}
	}
	return found, nil
}

// HasValidKYC asks the vault whether address holds an accepted KYC credential.
func (c *Coordinator) HasValidKYC(ctx context.Context, address string) (bool, error) {
	if c.vault == nil {
		return false, dErrors.New(dErrors.CodeUnavailable, "vault contract not configured")
	}
	user, err := chain.ParseAddress(address)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid wallet address")
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return false, dErrors.New(dErrors.CodeUnavailable, "chain temporarily unavailable")
	}
	ok, err := c.vault.HasValidKYCNFT(ctx, user)
	if err != nil {
		c.chainFailed("hasValidKYCNFT")
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "vault contract unavailable")
	}
	c.chainRecovered()
	return ok, nil
}

func (c *Coordinator) chainFailed(method string) {
	c.metrics.IncChainReadFailure(method)
	if c.breaker != nil && c.breaker.RecordFailure().Opened {
		c.logger.Warn("chain circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Coordinator) chainRecovered() {
	if c.breaker != nil && c.breaker.RecordSuccess().Closed {
		c.logger.Info("chain circuit closed", "breaker", c.breaker.Name())
	}
}

// CollectionFromURI returns the final path segment of a token URI without
// its extension: ".../binance-kyc.json" names the binance-kyc collection.
func CollectionFromURI(uri string) string {
	uri, _, _ = strings.Cut(uri, "#")
	uri, _, _ = strings.Cut(uri, "?")
	uri = strings.TrimRight(uri, "/")
	if uri == "" {
		return ""
	}
	base := path.Base(uri)
	return strings.TrimSuffix(base, path.Ext(base))
}
