package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(8)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 8, bb.Cap())

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("hello"), bb.Bytes())

	capBefore := bb.Cap()
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, capBefore, bb.Cap())
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity is a no-op", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(64)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffers grow by a fixed step", func(t *testing.T) {
		bb := NewByteBuffer(4)
		_, _ = bb.Write([]byte("abcd"))
		bb.Grow(1)
		require.Equal(t, 4+growSmallStep, bb.Cap())
		require.Equal(t, []byte("abcd"), bb.Bytes())
	})

	t.Run("large buffers grow by a quarter", func(t *testing.T) {
		size := 8 * growSmallStep
		bb := NewByteBuffer(size)
		bb.B = bb.B[:size]
		bb.Grow(1)
		require.Equal(t, size+size/4, bb.Cap())
	})

	t.Run("growth covers the request", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(growSmallStep * 3)
		require.GreaterOrEqual(t, bb.Cap(), growSmallStep*3)
	})
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.Write([]byte("rossdash"))

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(8), n)
	require.Equal(t, "rossdash", out.String())
}

func TestByteBufferPool_PutDropsOversized(t *testing.T) {
	p := NewByteBufferPool(16, 32)

	bb := p.Get()
	require.NotNil(t, bb)
	require.Equal(t, 16, bb.Cap())

	_, _ = bb.Write(make([]byte, 10))
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len())

	big := NewByteBuffer(64)
	p.Put(big) // over threshold, dropped
	p.Put(nil)
}

func TestDefaultPools_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 100 {
				col := GetColumnBuffer()
				_, _ = col.Write([]byte{byte(i)})
				assert.Equal(t, 1, col.Len())
				PutColumnBuffer(col)

				snap := GetSnapshotBuffer()
				assert.Equal(t, 0, snap.Len())
				PutSnapshotBuffer(snap)
			}
		}(i)
	}
	wg.Wait()
}
