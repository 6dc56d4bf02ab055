// Package keylock serializes work per string key without a map of mutexes.
package keylock

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// Sharded maps keys onto a fixed set of mutexes. Two keys may share a shard,
// so holders must not take a second key while holding one.
type Sharded struct {
	shards [shardCount]sync.Mutex
}

func New() *Sharded {
	return &Sharded{}
}

// Lock blocks until key's shard is free and returns the matching unlock.
func (s *Sharded) Lock(key string) (unlock func()) {
	m := &s.shards[shardFor(key)]
	m.Lock()
	return m.Unlock
}

func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
