package proof

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credmint/internal/platform/logger"
)

func TestValidate(t *testing.T) {
	v := NewValidator(logger.Discard())

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"null", `null`, false},
		{"empty list", `[]`, false},
		{"list with signatures", `[{"signatures":"x"}]`, true},
		{"list with claim data", `[{"claimData":{"provider":"http"}},{"proof":"abc"}]`, true},
		{"list with one bad entry", `[{"claimData":{}},{"other":1}]`, false},
		{"list with primitive entry", `["proof"]`, false},
		{"list entry ignores extracted values", `[{"extractedParameterValues":{"a":"b"}}]`, false},
		{"object with empty claim data", `{"claimData":{}}`, true},
		{"object with extracted values", `{"extractedParameterValues":{"username":"alice"}}`, true},
		{"object with empty list field", `{"signatures":[]}`, true},
		{"object with falsy fields", `{"signatures":"","proof":0,"claimData":null,"extractedParameterValues":false}`, false},
		{"object without fields", `{"foo":"bar"}`, false},
		{"plain string", `"plain string"`, false},
		{"number", `42`, false},
		{"true", `true`, false},
		{"malformed", `{"claimData":`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidateJSON([]byte(tt.raw)))
			assert.Equal(t, tt.want, v.ValidateJSON([]byte(tt.raw)), "same input, same verdict")
		})
	}
}

func TestValidateGoValues(t *testing.T) {
	assert.False(t, Validate(nil))
	assert.False(t, Validate([]any{}))
	assert.True(t, Validate([]any{map[string]any{"signatures": "x"}}))
	assert.True(t, Validate(map[string]any{"claimData": map[string]any{}}))
	assert.True(t, Validate([]map[string]any{{"proof": "p"}}))
	assert.False(t, Validate("plain string"))
	assert.True(t, Validate(json.RawMessage(`{"proof":"p"}`)))
	assert.False(t, Validate(struct{ Proof string }{Proof: "p"}))
}

func TestAccept(t *testing.T) {
	v := NewValidator(logger.Discard())

	accepted, ok := v.Accept([]byte("{\n  \"claimData\": {\"owner\": \"0xabc\"}\n}"))
	require.True(t, ok)
	assert.Equal(t, `{"claimData":{"owner":"0xabc"}}`, accepted.String())
	assert.False(t, accepted.IsZero())

	rejected, ok := v.Accept([]byte(`{"foo":1}`))
	assert.False(t, ok)
	assert.True(t, rejected.IsZero())
}
