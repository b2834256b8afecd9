package workload

import (
	"sync"

	"github.com/hanfei1991/blockingqueue/pkg/autoid"
	"github.com/hanfei1991/blockingqueue/pkg/errors"
)

// checker records popped items, which are ids allocated per producer by
// autoid.IDAllocator. It detects duplicates and, when a single
// consumer pops from a FIFO queue, out-of-order items of a producer.
type checker struct {
	mu   sync.Mutex
	seen map[int64]struct{}
	// lastSeq is nil unless order is checked.
	lastSeq []int64
}

func newChecker(cfg Config) *checker {
	c := &checker{
		seen: make(map[int64]struct{}, cfg.Producers*cfg.ItemsPerProducer),
	}
	if cfg.Mode == ModeFIFO && cfg.Consumers == 1 {
		c.lastSeq = make([]int64, cfg.Producers)
		for i := range c.lastSeq {
			c.lastSeq[i] = -1
		}
	}
	return c
}

func (c *checker) observe(item int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[item]; ok {
		return errors.ErrWorkloadDuplicateItem.GenWithStackByArgs(item)
	}
	c.seen[item] = struct{}{}

	if c.lastSeq != nil {
		producer, seq := autoid.SplitID(item)
		if producer >= 0 && producer < int64(len(c.lastSeq)) {
			if seq <= c.lastSeq[producer] {
				return errors.ErrWorkloadOrderViolation.GenWithStackByArgs(producer, seq, c.lastSeq[producer])
			}
			c.lastSeq[producer] = seq
		}
	}
	return nil
}

func (c *checker) distinct() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.seen))
}
