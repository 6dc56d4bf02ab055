package proofrequest

import (
	"context"
	"fmt"

	"github.com/skip2/go-qrcode"

	"credmint/internal/platform/tracer"
)

// Handoff is what the user needs to continue on a companion device.
type Handoff struct {
	SessionID  string `json:"session_id"`
	RequestURL string `json:"request_url"`
	// QRCode is a PNG encoding RequestURL.
	QRCode []byte `json:"qr_code_png"`
}

// TriggerFlow prepares the out-of-band hand-off for the request URL.
func (r *Request) TriggerFlow(ctx context.Context) (h *Handoff, err error) {
	_, span := r.f.tracer.Start(ctx, tracer.SpanTriggerFlow,
		tracer.String(tracer.AttrProvider, r.cfg.Provider),
	)
	defer func() { span.End(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(r.cfg.RequestURL, qrcode.Medium, r.f.qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode hand-off QR code: %w", err)
	}
	return &Handoff{
		SessionID:  r.cfg.SessionID,
		RequestURL: r.cfg.RequestURL,
		QRCode:     png,
	}, nil
}
