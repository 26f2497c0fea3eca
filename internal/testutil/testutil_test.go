package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qdsl/internal/backend"
	"github.com/roach88/qdsl/internal/compiler"
	"github.com/roach88/qdsl/internal/ir"
)

func TestSeqCounter(t *testing.T) {
	c := NewSeqCounter()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	c.Reset()
	assert.Equal(t, int64(1), c.Next())
}

func TestSeqCounterConcurrent(t *testing.T) {
	c := NewSeqCounter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Current())
}

func TestFixedIDs(t *testing.T) {
	g := NewFixedIDs("")
	assert.Equal(t, "run-0001", g.Generate())
	assert.Equal(t, "run-0002", g.Generate())

	g = NewFixedIDs("bell")
	assert.Equal(t, "bell-0001", g.Generate())
}

func TestRecorderCalls(t *testing.T) {
	r := NewRecorder()
	dev, err := r.Open(context.Background(), 2)
	require.NoError(t, err)

	require.NoError(t, dev.Apply(backend.Hadamard, []int{0}))
	require.NoError(t, dev.ApplyControlled(backend.PauliX, []int{0}, []int{1}))
	_, err = dev.Probabilities([]int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"open 2",
		"apply 2x2 [0]",
		"ctrl 2x2 [0] -> [1]",
		"probs [0 1]",
	}, r.Calls)
	assert.Equal(t, 1, r.Opens())
}

func TestCountingLowerer(t *testing.T) {
	r := NewRecorder()
	cl := &CountingLowerer{Inner: compiler.New(r)}

	p := ir.NewProgram(1)
	p.Append(ir.State{})
	_, err := cl.Lower(p)
	require.NoError(t, err)
	_, err = cl.Lower(p)
	require.NoError(t, err)

	assert.Equal(t, 2, cl.Calls)
	assert.True(t, cl.Known(ir.KindH))
	assert.Empty(t, r.Calls, "lowering never touches the backend")
}
