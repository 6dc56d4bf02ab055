// Package verifyconfig hosts the proof-request configuration endpoint and the
// callback endpoint the proof service reports outcomes to.
package verifyconfig

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"credmint/internal/chain"
	jwttoken "credmint/internal/jwt_token"
	"credmint/internal/platform/config"
	"credmint/internal/platform/tracer"
	"credmint/internal/proofrequest"
	dErrors "credmint/pkg/domain-errors"
)

// Builder issues signed proof-request configs for the providers it knows.
type Builder struct {
	appID           string
	requestBaseURL  string
	statusBaseURL   string
	callbackBaseURL string
	providers       map[string]string
	key             *ecdsa.PrivateKey

	tokens *jwttoken.CallbackService
	clock  clock.Clock
	tracer tracer.Tracer
	newID  func() string
}

type BuilderOption func(*Builder)

// WithCallbackTokens enables callbackUrl in issued configs.
func WithCallbackTokens(t *jwttoken.CallbackService) BuilderOption {
	return func(b *Builder) { b.tokens = t }
}

func WithClock(c clock.Clock) BuilderOption {
	return func(b *Builder) { b.clock = c }
}

func WithTracer(t tracer.Tracer) BuilderOption {
	return func(b *Builder) { b.tracer = t }
}

// WithSessionIDs overrides session id generation.
func WithSessionIDs(fn func() string) BuilderOption {
	return func(b *Builder) { b.newID = fn }
}

// NewBuilder validates cfg. An empty AppSecret leaves configs unsigned.
func NewBuilder(cfg config.ProofService, opts ...BuilderOption) (*Builder, error) {
	if cfg.RequestBaseURL == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proof request base url is required")
	}
	b := &Builder{
		appID:           cfg.AppID,
		requestBaseURL:  cfg.RequestBaseURL,
		statusBaseURL:   strings.TrimRight(cfg.StatusBaseURL, "/"),
		callbackBaseURL: strings.TrimRight(cfg.CallbackBaseURL, "/"),
		providers:       make(map[string]string, len(cfg.Providers)),
		clock:           clock.New(),
		tracer:          tracer.NewNoop(),
		newID:           uuid.NewString,
	}
	for name, id := range cfg.Providers {
		b.providers[strings.ToLower(name)] = id
	}
	if cfg.AppSecret != "" {
		key, err := chain.ParseKey(cfg.AppSecret)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid proof app secret")
		}
		b.key = key
		if b.appID == "" {
			b.appID = crypto.PubkeyToAddress(key.PublicKey).Hex()
		}
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Providers lists the configured provider names.
func (b *Builder) Providers() []string {
	out := make([]string, 0, len(b.providers))
	for name := range b.providers {
		out = append(out, name)
	}
	return out
}

// Build issues a fresh config for provider with a new session id.
func (b *Builder) Build(ctx context.Context, provider string) (cfg proofrequest.Config, err error) {
	_, span := b.tracer.Start(ctx, tracer.SpanConfigBuild, tracer.String(tracer.AttrProvider, provider))
	defer func() { span.End(err) }()

	name := strings.ToLower(strings.TrimSpace(provider))
	providerID, ok := b.providers[name]
	if !ok {
		return proofrequest.Config{}, dErrors.New(dErrors.CodeUnknownProvider,
			fmt.Sprintf("No verification config for provider: %s", provider))
	}

	sessionID := b.newID()
	cfg = proofrequest.Config{
		ApplicationID: b.appID,
		ProviderID:    providerID,
		Provider:      name,
		SessionID:     sessionID,
		Timestamp:     strconv.FormatInt(b.clock.Now().UnixMilli(), 10),
	}
	cfg.RequestURL = b.requestBaseURL + "?" + url.Values{
		"applicationId": {cfg.ApplicationID},
		"providerId":    {providerID},
		"sessionId":     {sessionID},
	}.Encode()
	if b.statusBaseURL != "" {
		cfg.StatusURL = b.statusBaseURL + "/" + url.PathEscape(sessionID)
	}
	if b.tokens != nil && b.callbackBaseURL != "" {
		token, err := b.tokens.Issue(sessionID, name)
		if err != nil {
			return proofrequest.Config{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue callback token")
		}
		cfg.CallbackURL = b.callbackBaseURL + "/verify-callback?" + url.Values{
			"sessionId": {sessionID},
			"token":     {token},
		}.Encode()
	}
	if b.key != nil {
		sig, err := crypto.Sign(signingHash(cfg).Bytes(), b.key)
		if err != nil {
			return proofrequest.Config{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign proof request")
		}
		cfg.Signature = hexutil.Encode(sig)
	}
	return cfg, nil
}

type signedFields struct {
	ProviderID string `json:"providerId"`
	SessionID  string `json:"sessionId"`
	Timestamp  string `json:"timestamp"`
}

func signingHash(cfg proofrequest.Config) common.Hash {
	// struct fields marshal in declaration order
	payload, _ := json.Marshal(signedFields{
		ProviderID: cfg.ProviderID,
		SessionID:  cfg.SessionID,
		Timestamp:  cfg.Timestamp,
	})
	return crypto.Keccak256Hash(payload)
}

// Signer recovers the address that signed cfg.
func Signer(cfg proofrequest.Config) (common.Address, error) {
	sig, err := hexutil.Decode(cfg.Signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	pub, err := crypto.SigToPub(signingHash(cfg).Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
