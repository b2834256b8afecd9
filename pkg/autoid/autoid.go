package autoid

import (
	"sync"

	"github.com/google/uuid"
)

const seqBits = 32

// IDAllocator hands out int64 ids carrying a prefix in the high 32 bits and
// a sequence number, starting at 0, in the low 32 bits.
type IDAllocator struct {
	sync.Mutex
	nextSeq int64
	prefix  int64
}

func NewIDAllocator(prefix int64) *IDAllocator {
	return &IDAllocator{
		prefix: prefix << seqBits,
	}
}

func (a *IDAllocator) AllocID() int64 {
	a.Lock()
	defer a.Unlock()
	id := a.prefix | a.nextSeq
	a.nextSeq++
	return id
}

// SplitID returns the prefix and sequence number an id was built from.
func SplitID(id int64) (prefix, seq int64) {
	return id >> seqBits, id & (1<<seqBits - 1)
}

type UUIDAllocator struct{}

func NewUUIDAllocator() *UUIDAllocator {
	return new(UUIDAllocator)
}

func (a *UUIDAllocator) AllocID() string {
	return uuid.New().String()
}
