package rest

import (
	"sync"
	"time"
)

// NonceGenerator issues strictly increasing nonces for signed requests. The
// counter is seeded from wall-clock nanoseconds so that nonces stay ordered
// across process restarts under normal clock behavior. One generator must
// be shared by every client signing with the same credentials.
type NonceGenerator struct {
	mutex   sync.Mutex
	counter uint64
}

func NewNonceGenerator() *NonceGenerator {
	return &NonceGenerator{counter: uint64(time.Now().UnixNano())}
}

// Next returns a nonce strictly greater than every previously issued one.
func (ng *NonceGenerator) Next() uint64 {
	ng.mutex.Lock()
	defer ng.mutex.Unlock()

	ng.counter++

	return ng.counter
}
