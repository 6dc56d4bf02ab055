package proofrequest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credmint/internal/platform/logger"
)

type outcome struct {
	mu     sync.Mutex
	proofs json.RawMessage
	err    error
	calls  int
}

func (o *outcome) callbacks() Callbacks {
	return Callbacks{
		OnSuccess: func(p json.RawMessage) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.proofs = p
			o.calls++
		},
		OnError: func(err error) {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.err = err
			o.calls++
		},
	}
}

func (o *outcome) snapshot() (json.RawMessage, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proofs, o.calls, o.err
}

type SessionSuite struct {
	suite.Suite
	clock   *clock.Mock
	inbox   *Inbox
	factory *Factory
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.inbox = NewInbox()
	s.factory = NewFactory(
		WithClock(s.clock),
		WithPollInterval(time.Second),
		WithInbox(s.inbox),
		WithLogger(logger.Discard()),
	)
}

func (s *SessionSuite) request(statusURL string) *Request {
	raw := fmt.Sprintf(`{"providerId":"p","provider":"coinbase","sessionId":"sess-1","requestUrl":"https://share.example/v","statusUrl":%q}`, statusURL)
	req, err := s.factory.FromJSONString(raw)
	s.Require().NoError(err)
	return req
}

// tickUntil advances the mock clock one poll interval at a time until cond holds.
func (s *SessionSuite) tickUntil(cond func() bool) {
	s.Eventually(func() bool {
		s.clock.Add(time.Second)
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *SessionSuite) TestPollResolvesWithProofs() {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"status":"pending"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"verified","proofs":[{"claimData":{"owner":"0xabc"}}]}`))
	}))
	defer srv.Close()

	var out outcome
	s.Require().NoError(s.request(srv.URL).StartSession(context.Background(), out.callbacks()))

	s.tickUntil(func() bool { _, n, _ := out.snapshot(); return n > 0 })

	proofs, n, err := out.snapshot()
	s.NoError(err)
	s.Equal(1, n)
	s.JSONEq(`[{"claimData":{"owner":"0xabc"}}]`, string(proofs))
}

func (s *SessionSuite) TestPollReportsFailedSession() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","message":"User declined"}`))
	}))
	defer srv.Close()

	var out outcome
	s.Require().NoError(s.request(srv.URL).StartSession(context.Background(), out.callbacks()))

	s.tickUntil(func() bool { _, n, _ := out.snapshot(); return n > 0 })

	_, _, err := out.snapshot()
	var se *SessionError
	s.Require().ErrorAs(err, &se)
	s.Equal("User declined", se.Error())
}

func (s *SessionSuite) TestPollGivesUpOnRejectedStatus() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out outcome
	s.Require().NoError(s.request(srv.URL).StartSession(context.Background(), out.callbacks()))

	s.tickUntil(func() bool { _, n, _ := out.snapshot(); return n > 0 })

	_, _, err := out.snapshot()
	var fe *FetchError
	s.Require().ErrorAs(err, &fe)
	s.Equal(ErrorRejected, fe.Category)
}

func (s *SessionSuite) TestCancelledPollNeverCallsBack() {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"status":"verified","proofs":{"proof":"p"}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out outcome
	s.Require().NoError(s.request(srv.URL).StartSession(ctx, out.callbacks()))
	cancel()

	for range 5 {
		s.clock.Add(time.Second)
	}
	_, n, _ := out.snapshot()
	s.Zero(n)
}

func (s *SessionSuite) TestInboxDelivery() {
	req := s.request("")
	var out outcome
	s.Require().NoError(req.StartSession(context.Background(), out.callbacks()))
	s.True(s.inbox.Pending("sess-1"))

	s.Require().NoError(s.inbox.Deliver("sess-1", Delivery{Proofs: json.RawMessage(`{"proof":"p"}`)}))

	s.Eventually(func() bool { _, n, _ := out.snapshot(); return n == 1 }, time.Second, 5*time.Millisecond)
	s.Eventually(func() bool { return !s.inbox.Pending("sess-1") }, time.Second, 5*time.Millisecond)
	s.ErrorIs(s.inbox.Deliver("sess-1", Delivery{}), ErrUnknownSession)
}

func (s *SessionSuite) TestInboxErrorDelivery() {
	var out outcome
	s.Require().NoError(s.request("").StartSession(context.Background(), out.callbacks()))

	s.Require().NoError(s.inbox.Deliver("sess-1", Delivery{Error: "expired"}))

	s.Eventually(func() bool { _, n, _ := out.snapshot(); return n == 1 }, time.Second, 5*time.Millisecond)
	_, _, err := out.snapshot()
	s.EqualError(err, "expired")
}

func (s *SessionSuite) TestStartSessionOnlyOnce() {
	req := s.request("")
	var out outcome
	s.Require().NoError(req.StartSession(context.Background(), out.callbacks()))
	s.ErrorIs(req.StartSession(context.Background(), out.callbacks()), ErrSessionStarted)
	s.ErrorIs(req.StartSession(context.Background(), Callbacks{}), ErrMissingCallbacks)
}

func TestStartSessionWithoutResolution(t *testing.T) {
	req, err := NewFactory().FromJSONString(`{"providerId":"p","sessionId":"s","requestUrl":"https://x"}`)
	require.NoError(t, err)

	err = req.StartSession(context.Background(), Callbacks{OnSuccess: func(json.RawMessage) {}, OnError: func(error) {}})
	assert.ErrorIs(t, err, ErrNoResolution)
}

func TestInboxRejectsDuplicates(t *testing.T) {
	in := NewInbox()
	_, release, err := in.Subscribe("s")
	require.NoError(t, err)

	_, _, err = in.Subscribe("s")
	assert.ErrorIs(t, err, ErrDuplicateSession)

	require.NoError(t, in.Deliver("s", Delivery{}))
	assert.ErrorIs(t, in.Deliver("s", Delivery{}), ErrAlreadyDelivered)

	release()
	assert.False(t, in.Pending("s"))
}
