// Package cache stores recent backend healthcheck outcomes so that bursts
// of status polls do not each call the backend.
//
// Three backends are available:
//
//   - an in-memory TTL map, private to the process
//   - Redis, shared between replicas
//   - a disabled cache that never stores anything
//
// # Example Usage
//
//	c, err := cache.New(&config.CacheConfig{
//	    Enabled: true,
//	    Type:    config.CacheTypeRedis,
//	    TTL:     config.Duration(5 * time.Second),
//	    Redis:   &config.RedisCacheConfig{URL: "redis://localhost:6379/0"},
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
// All cache implementations are safe for concurrent use.
package cache
