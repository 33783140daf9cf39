// Package resilience provides fault tolerance patterns for calls to remote services.
//
// The watcher polls a quota-limited API once a minute. When the API starts
// failing (quota exhausted, outage) the circuit breaker short-circuits calls
// until the open timeout elapses, so each failing cycle costs no requests.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.YouTubeAPIConfig())
//	stats, err := circuitbreaker.Call(cb, func() ([]entity.VideoStat, error) {
//	    return client.fetch(ctx, ids)
//	})
package resilience
