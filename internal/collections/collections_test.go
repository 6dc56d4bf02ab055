package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"coinbase-kyc", "binance-kyc", "x-username", "example-verification"}, c.IDs())

	x, ok := c.Get("x-username")
	require.True(t, ok)
	assert.Equal(t, MethodX, x.Method)
	assert.Equal(t, "X (Twitter)", x.Issuer)

	_, ok = c.Get("unknown")
	assert.False(t, ok)
}

func TestSplit(t *testing.T) {
	c := Default()

	have, missing := c.Split(map[string]string{"binance-kyc": "7", "nope": "1"})

	require.Len(t, have, 1)
	assert.Equal(t, "binance-kyc", have[0].ID)
	assert.Len(t, missing, 3)
	assert.Equal(t, "coinbase-kyc", missing[0].ID)
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod(" Coinbase ")
	assert.True(t, ok)
	assert.Equal(t, MethodCoinbase, m)

	_, ok = ParseMethod("kraken")
	assert.False(t, ok)
}

func TestCatalogIgnoresDuplicates(t *testing.T) {
	c := NewCatalog(
		Collection{ID: "a", Name: "first"},
		Collection{ID: "a", Name: "second"},
	)

	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, "first", all[0].Name)
}
