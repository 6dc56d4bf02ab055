package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromEnv()

		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, time.Second, cfg.Verification.GraceDelay)
		assert.Equal(t, 2*time.Second, cfg.Verification.DisplayDelay)
		assert.Equal(t, 5*time.Minute, cfg.Verification.AwaitTimeout)
		assert.Equal(t, "http://localhost:8080", cfg.Verification.ConfigBaseURL)
		assert.Equal(t, uint64(2), cfg.Verification.FetchRetries)
		assert.Empty(t, cfg.ProofService.Providers)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CREDMINT_ADDR", "127.0.0.1:9090")
		t.Setenv("VERIFICATION_GRACE_DELAY", "250ms")
		t.Setenv("VERIFICATION_AWAIT_TIMEOUT", "0s")
		t.Setenv("PROOF_PROVIDER_IDS", "coinbase=cb-1, Binance = bn-2")
		t.Setenv("CHAIN_ID", "123123")

		cfg := FromEnv()

		assert.Equal(t, "127.0.0.1:9090", cfg.Addr)
		assert.Equal(t, "http://localhost:9090", cfg.Verification.ConfigBaseURL)
		assert.Equal(t, 250*time.Millisecond, cfg.Verification.GraceDelay)
		assert.Zero(t, cfg.Verification.AwaitTimeout)
		assert.Equal(t, int64(123123), cfg.Chain.ChainID)
		require.Len(t, cfg.ProofService.Providers, 2)
		assert.Equal(t, "bn-2", cfg.ProofService.Providers["binance"])
	})

	t.Run("invalid duration keeps default", func(t *testing.T) {
		t.Setenv("VERIFICATION_DISPLAY_DELAY", "soon")
		assert.Equal(t, DefaultDisplayDelay, FromEnv().Verification.DisplayDelay)
	})
}

func TestParseProviders(t *testing.T) {
	got := ParseProviders("x=abc,,broken,=nope,twitter=")
	assert.Equal(t, map[string]string{"x": "abc"}, got)
}
