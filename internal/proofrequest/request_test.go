package proofrequest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
	"applicationId": "0xapp",
	"providerId": "prov-coinbase",
	"provider": "coinbase",
	"sessionId": "sess-1",
	"requestUrl": "https://share.example/verifier?session=sess-1",
	"statusUrl": "",
	"timestamp": "1735689600000",
	"signature": "0xsig"
}`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(sampleConfig)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", cfg.SessionID)
	assert.Equal(t, "coinbase", cfg.Provider)

	for name, raw := range map[string]string{
		"not json":       `<cfg>`,
		"no session":     `{"providerId":"p","requestUrl":"https://x"}`,
		"no request url": `{"providerId":"p","sessionId":"s"}`,
		"no provider id": `{"sessionId":"s","requestUrl":"https://x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig(raw)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestTriggerFlow(t *testing.T) {
	req, err := NewFactory(WithQRSize(128)).FromJSONString(sampleConfig)
	require.NoError(t, err)

	h, err := req.TriggerFlow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", h.SessionID)
	assert.Equal(t, "https://share.example/verifier?session=sess-1", h.RequestURL)
	assert.True(t, bytes.HasPrefix(h.QRCode, []byte("\x89PNG")), "hand-off QR code is a PNG")
}

func TestTriggerFlowCancelled(t *testing.T) {
	req, err := NewFactory().FromJSONString(sampleConfig)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = req.TriggerFlow(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
