package privacy

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ipv4", input: "192.168.1.47", expected: "192.168.1.0"},
		{name: "ipv4 localhost", input: "127.0.0.1", expected: "127.0.0.0"},
		{name: "ipv4 mapped", input: "::ffff:10.1.2.3", expected: "10.1.2.0"},
		{name: "ipv6", input: "2001:db8:85a3::8a2e:370:7334", expected: "2001:db8:85a3::"},
		{name: "ipv6 loopback", input: "::1", expected: "::"},
		{name: "empty", input: "", expected: "unknown"},
		{name: "garbage", input: "not-an-ip", expected: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.77:51234"
	assert.Equal(t, "203.0.113.0", RemoteIP(r))

	r.RemoteAddr = "198.51.100.9"
	assert.Equal(t, "198.51.100.0", RemoteIP(r))
}
