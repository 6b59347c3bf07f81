// Package resilience provides a circuit breaker for calls to external
// collaborators such as the control plane inventory.
//
// States:
//   - Closed: requests flow, failures are counted
//   - Open: requests fail fast with ErrCircuitOpen until Timeout elapses
//   - Half-open: up to MaxRequests trial requests decide whether to close
//
// Example Usage:
//
//	breaker := resilience.New("inventory", resilience.Settings{Timeout: 10 * time.Second})
//	err := breaker.Do(func() error {
//	    return fetch(ctx)
//	})
package resilience
