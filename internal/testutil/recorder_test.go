package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sequence/internal/ir"
)

func TestRecorder_IntervalRecordsInOrder(t *testing.T) {
	rec := NewRecorder()
	a := rec.Interval("a", 1.5, true)
	b := rec.Interval("b", 0, false)

	a.SetT(0.25, ir.EventInitialize)
	b.SetT(0, ir.EventInstant)
	a.SetT(0, ir.EventFinalize)

	assert.Equal(t, []string{
		"a:initialize@0.25",
		"b:instant@0",
		"a:finalize@0",
	}, rec.Strings())
	assert.Equal(t, 2, rec.Count("a"))
	assert.Equal(t, 3, rec.Count(""))

	assert.Equal(t, "a", a.Name())
	assert.Equal(t, 1.5, a.Duration())
	assert.False(t, b.OpenEnded())
}

func TestRecorder_Reset(t *testing.T) {
	rec := NewRecorder()
	rec.Record("x", 1, ir.EventStep)
	rec.Reset()

	assert.Empty(t, rec.Calls())
}

func TestRecorder_ThreadSafe(t *testing.T) {
	rec := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec.Record("x", 0, ir.EventStep)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, rec.Count("x"))
}
