// Package proof decides whether a proof payload returned by the proof service
// is structurally usable before it reaches the mint path. It does not verify
// signatures.
package proof

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
)

var (
	entryFields  = []string{"signatures", "proof", "claimData"}
	recordFields = []string{"signatures", "proof", "claimData", "extractedParameterValues"}
)

// Validator checks proof payloads. The zero value is usable and logs to
// slog.Default.
type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger}
}

func (v *Validator) log() *slog.Logger {
	if v == nil || v.logger == nil {
		return slog.Default()
	}
	return v.logger
}

// Validate reports whether payload is a non-empty list of proof entries or a
// single proof record. It never panics.
func (v *Validator) Validate(payload any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.log().Error("proof validation panicked", "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	return validate(payload)
}

// ValidateJSON decodes raw and validates the result. Undecodable input is invalid.
func (v *Validator) ValidateJSON(raw []byte) bool {
	payload, err := decode(raw)
	if err != nil {
		return false
	}
	return v.Validate(payload)
}

// Accept validates raw and, on success, returns it in compact form for minting.
func (v *Validator) Accept(raw []byte) (Accepted, bool) {
	if !v.ValidateJSON(raw) {
		return Accepted{}, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Accepted{}, false
	}
	return Accepted{payload: buf.String()}, true
}

// Validate runs the default validator.
func Validate(payload any) bool {
	return (*Validator)(nil).Validate(payload)
}

func decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func validate(payload any) bool {
	switch p := payload.(type) {
	case nil:
		return false
	case json.RawMessage:
		decoded, err := decode(p)
		if err != nil {
			return false
		}
		return validate(decoded)
	case []any:
		if len(p) == 0 {
			return false
		}
		for _, entry := range p {
			rec, isRecord := entry.(map[string]any)
			if !isRecord || !hasAny(rec, entryFields) {
				return false
			}
		}
		return true
	case []map[string]any:
		if len(p) == 0 {
			return false
		}
		for _, rec := range p {
			if !hasAny(rec, entryFields) {
				return false
			}
		}
		return true
	case map[string]any:
		return hasAny(p, recordFields)
	default:
		return false
	}
}

func hasAny(rec map[string]any, fields []string) bool {
	for _, f := range fields {
		if truthy(rec[f]) {
			return true
		}
	}
	return false
}

// truthy follows JSON value semantics: null, false, zero and "" are falsy;
// objects and arrays are truthy even when empty.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return err != nil || f != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
