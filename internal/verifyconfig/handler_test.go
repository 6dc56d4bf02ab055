package verifyconfig

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	jwttoken "credmint/internal/jwt_token"
	"credmint/internal/platform/config"
	"credmint/internal/platform/logger"
	"credmint/internal/proofrequest"
)

const sessionID = "sess-42"

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	inbox  *proofrequest.Inbox
	tokens *jwttoken.CallbackService
	signer common.Address
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.signer = crypto.PubkeyToAddress(key.PublicKey)

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.tokens = jwttoken.NewCallbackService("callback-secret", "credmint", time.Minute, jwttoken.WithClock(clk))
	s.inbox = proofrequest.NewInbox()

	builder, err := NewBuilder(config.ProofService{
		AppID:           "app-1",
		AppSecret:       hexutil.Encode(crypto.FromECDSA(key)),
		RequestBaseURL:  "https://proofs.example/verifier",
		StatusBaseURL:   "https://proofs.example/status/",
		CallbackBaseURL: "https://credmint.example",
		Providers:       map[string]string{"coinbase": "cb-provider", "Binance": "bn-provider"},
	},
		WithCallbackTokens(s.tokens),
		WithClock(clk),
		WithSessionIDs(func() string { return sessionID }),
	)
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(builder, s.inbox, s.tokens, logger.Discard()).Register(r)
	s.router = r
}

func (s *HandlerSuite) get(target string) (*httptest.ResponseRecorder, proofrequest.ConfigResponse) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var resp proofrequest.ConfigResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (s *HandlerSuite) TestIssuesSignedConfig() {
	rec, resp := s.get("/verification-config/coinbase")
	s.Equal(http.StatusOK, rec.Code)
	s.True(resp.Success)

	cfg, err := proofrequest.ParseConfig(resp.ProofRequest)
	s.Require().NoError(err)
	s.Equal("app-1", cfg.ApplicationID)
	s.Equal("cb-provider", cfg.ProviderID)
	s.Equal(sessionID, cfg.SessionID)
	s.Equal("https://proofs.example/status/"+sessionID, cfg.StatusURL)
	s.Equal("1772366400000", cfg.Timestamp)

	request, err := url.Parse(cfg.RequestURL)
	s.Require().NoError(err)
	s.Equal("cb-provider", request.Query().Get("providerId"))

	callback, err := url.Parse(cfg.CallbackURL)
	s.Require().NoError(err)
	s.Equal("/verify-callback", callback.Path)
	_, err = s.tokens.Validate(callback.Query().Get("token"), sessionID)
	s.NoError(err)

	signer, err := Signer(cfg)
	s.Require().NoError(err)
	s.Equal(s.signer, signer)

	cfg.Timestamp = "0"
	tampered, err := Signer(cfg)
	s.Require().NoError(err)
	s.NotEqual(s.signer, tampered)
}

func (s *HandlerSuite) TestProviderNameIsCaseInsensitive() {
	rec, resp := s.get("/verification-config/BINANCE")
	s.Equal(http.StatusOK, rec.Code)
	cfg, err := proofrequest.ParseConfig(resp.ProofRequest)
	s.Require().NoError(err)
	s.Equal("bn-provider", cfg.ProviderID)
}

func (s *HandlerSuite) TestUnknownProvider() {
	rec, resp := s.get("/verification-config/myspace")
	s.Equal(http.StatusNotFound, rec.Code)
	s.False(resp.Success)
	s.Equal("No verification config for provider: myspace", resp.Error)
}

func (s *HandlerSuite) TestMissingProvider() {
	rec, resp := s.get("/verification-config")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(resp.Success)
	s.Contains(resp.Error, "Please specify a provider")
}

// The client fetcher and the endpoint agree on the wire format.
func (s *HandlerSuite) TestFetcherRoundTrip() {
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	fetcher := proofrequest.NewFetcher(proofrequest.FetcherConfig{BaseURL: srv.URL, Logger: logger.Discard()})

	raw, err := fetcher.Fetch(context.Background(), "coinbase")
	s.Require().NoError(err)
	cfg, err := proofrequest.ParseConfig(raw)
	s.Require().NoError(err)
	s.Equal(sessionID, cfg.SessionID)

	_, err = fetcher.Fetch(context.Background(), "myspace")
	var fe *proofrequest.FetchError
	s.Require().True(errors.As(err, &fe))
	s.Equal(proofrequest.ErrorNotConfigured, fe.Category)
	s.Equal("No verification config for provider: myspace", fe.Message)
}

func (s *HandlerSuite) callback(method, query, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/verify-callback?"+query, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) tokenQuery(session string) string {
	token, err := s.tokens.Issue(session, "coinbase")
	s.Require().NoError(err)
	return url.Values{"sessionId": {session}, "token": {token}}.Encode()
}

func (s *HandlerSuite) TestCallbackDeliversProofs() {
	ch, release, err := s.inbox.Subscribe(sessionID)
	s.Require().NoError(err)
	defer release()

	rec := s.callback(http.MethodPost, s.tokenQuery(sessionID), `{"proofs":[{"proof":"zk"}]}`)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.callback(http.MethodPost, s.tokenQuery(sessionID), `[{"proof":"again"}]`)
	s.Equal(http.StatusConflict, rec.Code)

	select {
	case d := <-ch:
		s.JSONEq(`[{"proof":"zk"}]`, string(d.Proofs))
		s.Empty(d.Error)
	default:
		s.Fail("no delivery")
	}
}

func (s *HandlerSuite) TestCallbackURLEncodedBody() {
	ch, release, err := s.inbox.Subscribe(sessionID)
	s.Require().NoError(err)
	defer release()

	rec := s.callback(http.MethodPost, s.tokenQuery(sessionID), url.QueryEscape(`{"claimData":{"provider":"x"}}`))
	s.Equal(http.StatusOK, rec.Code)
	d := <-ch
	s.JSONEq(`{"claimData":{"provider":"x"}}`, string(d.Proofs))
}

func (s *HandlerSuite) TestCallbackError() {
	ch, release, err := s.inbox.Subscribe(sessionID)
	s.Require().NoError(err)
	defer release()

	rec := s.callback(http.MethodGet, s.tokenQuery(sessionID)+"&error=user+declined", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("user declined", (<-ch).Error)
}

func (s *HandlerSuite) TestCallbackRejects() {
	_, release, err := s.inbox.Subscribe(sessionID)
	s.Require().NoError(err)
	defer release()

	s.Run("bad token", func() {
		rec := s.callback(http.MethodPost, "sessionId="+sessionID+"&token=forged", `[]`)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
	s.Run("token for another session", func() {
		token, err := s.tokens.Issue("other", "coinbase")
		s.Require().NoError(err)
		rec := s.callback(http.MethodPost, "sessionId="+sessionID+"&token="+token, `[]`)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
	s.Run("unknown session", func() {
		rec := s.callback(http.MethodPost, s.tokenQuery("nobody-waiting"), `[{"proof":"zk"}]`)
		s.Equal(http.StatusNotFound, rec.Code)
	})
	s.Run("not json", func() {
		rec := s.callback(http.MethodPost, s.tokenQuery(sessionID), `%zz`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
	s.Run("get without error", func() {
		rec := s.callback(http.MethodGet, s.tokenQuery(sessionID), "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
