package rest

import (
	"sort"
	"sync"
	"testing"
)

func TestNonceGenerator_StrictlyIncreasing(t *testing.T) {
	generator := NewNonceGenerator()

	previous := generator.Next()
	for i := 0; i < 1000; i++ {
		next := generator.Next()
		if next <= previous {
			t.Fatalf(
				"nonce [%v] is not greater than its predecessor [%v]",
				next,
				previous,
			)
		}
		previous = next
	}
}

func TestNonceGenerator_ConcurrentUniqueness(t *testing.T) {
	generator := NewNonceGenerator()

	workers := 10
	noncesPerWorker := 1000

	var waitGroup sync.WaitGroup
	results := make([][]uint64, workers)

	for worker := 0; worker < workers; worker++ {
		waitGroup.Add(1)

		go func(worker int) {
			defer waitGroup.Done()

			nonces := make([]uint64, 0, noncesPerWorker)
			for i := 0; i < noncesPerWorker; i++ {
				nonces = append(nonces, generator.Next())
			}

			results[worker] = nonces
		}(worker)
	}

	waitGroup.Wait()

	all := make([]uint64, 0, workers*noncesPerWorker)
	for _, nonces := range results {
		all = append(all, nonces...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	for i := 1; i < len(all); i++ {
		if all[i] == all[i-1] {
			t.Fatalf("duplicate nonce issued: [%v]", all[i])
		}
	}
}
