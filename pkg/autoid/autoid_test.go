package autoid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIDAllocator(t *testing.T) {
	t.Parallel()

	a := NewIDAllocator(7)
	for i := int64(0); i < 5; i++ {
		id := a.AllocID()
		prefix, seq := SplitID(id)
		require.Equal(t, int64(7), prefix)
		require.Equal(t, i, seq)
	}

	zero := NewIDAllocator(0)
	require.Equal(t, int64(0), zero.AllocID())
	require.Equal(t, int64(1), zero.AllocID())
}

func TestUUIDAllocator(t *testing.T) {
	t.Parallel()

	a := NewUUIDAllocator()
	id0, id1 := a.AllocID(), a.AllocID()
	require.NotEqual(t, id0, id1)
	_, err := uuid.Parse(id0)
	require.NoError(t, err)
}
