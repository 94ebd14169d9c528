// Package cache provides a generic, thread-safe LRU cache whose entries can
// optionally expire after a fixed time-to-live.
//
// The link resolver uses it to remember which attribution tokens were already
// resolved. In a browser-like session the set stays small; in a long-lived
// server process the capacity and TTL keep it bounded.
//
// # Usage
//
//	seen := cache.New[string, struct{}](1024, cache.WithTTL[string, struct{}](30*time.Minute))
//	seen.Put("abc123", struct{}{})
//
//	if seen.Contains("abc123") {
//		// already resolved
//	}
//
// Get, Put and Contains mark an entry as recently used. Expired entries are
// dropped lazily when they are looked up and when the cache is full.
//
// # Eviction Callbacks
//
//	c := cache.New[string, *Payload](100, cache.WithEvictCallback(func(k string, p *Payload) {
//		log.Printf("evicted %s", k)
//	}))
//
// The callback runs with the cache lock held and must not call back into
// the cache.
package cache
