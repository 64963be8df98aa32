package acmeclient

import "sync"

// nonceCell holds at most one cached replay nonce. Peek-and-remove on read
// and replace-on-write are atomic with respect to each other; the HTTP call
// made to refill an empty cell is made outside the lock, so two concurrent
// callers reaching an empty cell may each fetch their own fresh nonce. That
// is acceptable: nonces are cheap, and no nonce is ever handed to two
// callers (spec.md §5).
type nonceCell struct {
	mu    sync.Mutex
	value string
}

// take removes and returns the cached nonce, if any.
func (c *nonceCell) take() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value == "" {
		return "", false
	}
	v := c.value
	c.value = ""
	return v, true
}

// store caches a nonce, overwriting whatever was cached before. Storing the
// empty string is a no-op: the manager never manufactures a nonce out of
// nothing.
func (c *nonceCell) store(v string) {
	if v == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}
