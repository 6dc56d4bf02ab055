package tracer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "ab12..cdef", ShortAddress("0xAB1200000000000000000000000000000000cDeF"))
	assert.Equal(t, "abc", ShortAddress("0xabc"))
	assert.Equal(t, "", ShortAddress(""))
}

func TestToOTelAttributes(t *testing.T) {
	got := toOTelAttributes([]Attribute{
		String(AttrProvider, "coinbase"),
		Bool("ok", true),
		Duration("elapsed", 1500*time.Millisecond),
		{Key: "skipped", Value: struct{}{}},
	})

	assert.Len(t, got, 3)
	assert.Equal(t, "coinbase", got[0].Value.AsString())
	assert.Equal(t, int64(1500), got[2].Value.AsInt64())
	assert.Nil(t, toOTelAttributes(nil))
}
