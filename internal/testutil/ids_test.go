package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("c-123")

	assert.Equal(t, "c-123", gen.Generate())
	assert.Equal(t, "c-123", gen.Generate())
}

func TestFixedIDGenerator_EmptyDefault(t *testing.T) {
	gen := NewFixedIDGenerator("")
	assert.Equal(t, "test-compilation-default", gen.Generate())
}

func TestSequenceGenerator_Order(t *testing.T) {
	gen := NewSequenceGenerator("c-1", "c-2")

	assert.Equal(t, 2, gen.Remaining())
	assert.Equal(t, "c-1", gen.Generate())
	assert.Equal(t, "c-2", gen.Generate())
	assert.Equal(t, 0, gen.Remaining())
	assert.Panics(t, func() { gen.Generate() })
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = "c"
	}
	gen := NewSequenceGenerator(ids...)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				gen.Generate()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, gen.Remaining())
}
