package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameKeySerializes(t *testing.T) {
	s := New()
	counter := 0
	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			unlock := s.Lock("0xabc/kyc")
			defer unlock()
			counter++
		})
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestEmptyKeyUsesFirstShard(t *testing.T) {
	assert.Equal(t, 0, shardFor(""))

	unlock := New().Lock("")
	unlock()
}

func TestKeysSpreadAcrossShards(t *testing.T) {
	seen := make(map[int]bool)
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		seen[shardFor(key)] = true
	}
	assert.Greater(t, len(seen), 1)
}
