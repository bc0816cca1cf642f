package fixer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFix(tag string) ConsolidatedFix {
	return ConsolidatedFix{
		PrimaryFix:             "fixed " + tag,
		PrimaryExplanation:     "explanation " + tag,
		PrimaryConfidence:      0.9,
		AlternativeFix:         "alt " + tag,
		AlternativeExplanation: "alt explanation " + tag,
		AlternativeConfidence:  0.8,
		ErrorsFixed:            []string{"Line 1: " + tag},
		TotalErrors:            1,
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c := NewCache(10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	want := sampleFix("a")
	c.Put("fp-a", want)

	got, ok := c.Get("fp-a")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_CallersReceiveCopies(t *testing.T) {
	c := NewCache(10)
	c.Put("fp", sampleFix("a"))

	got, ok := c.Get("fp")
	require.True(t, ok)
	got.ErrorsFixed[0] = "mutated"

	again, ok := c.Get("fp")
	require.True(t, ok)
	assert.Equal(t, "Line 1: a", again.ErrorsFixed[0])
}

func TestCache_EvictsLeastRecentlyAccessed(t *testing.T) {
	c := NewCache(3)

	c.Put("fp-1", sampleFix("1"))
	time.Sleep(2 * time.Millisecond)
	c.Put("fp-2", sampleFix("2"))
	time.Sleep(2 * time.Millisecond)
	c.Put("fp-3", sampleFix("3"))
	time.Sleep(2 * time.Millisecond)

	// Touch fp-1 so fp-2 becomes the oldest by access time.
	_, ok := c.Get("fp-1")
	require.True(t, ok)

	c.Put("fp-4", sampleFix("4"))

	assert.Equal(t, 3, c.Stats().Size)

	_, ok = c.Get("fp-2")
	assert.False(t, ok, "least-recently-accessed entry should be evicted")
	_, ok = c.Get("fp-1")
	assert.True(t, ok)
	_, ok = c.Get("fp-4")
	assert.True(t, ok)
}

func TestCache_CapacityBound(t *testing.T) {
	c := NewCache(5)
	for i := 0; i < 6; i++ {
		c.Put(fmt.Sprintf("fp-%d", i), sampleFix("x"))
	}
	assert.Equal(t, 5, c.Stats().Size)
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewCache(2)
	c.Put("fp-1", sampleFix("1"))
	c.Put("fp-2", sampleFix("2"))

	// Re-inserting an existing key at capacity must not evict anyone.
	c.Put("fp-1", sampleFix("1b"))

	_, ok := c.Get("fp-2")
	assert.True(t, ok)
	got, ok := c.Get("fp-1")
	require.True(t, ok)
	assert.Equal(t, "fixed 1b", got.PrimaryFix)
}

func TestCache_Stats(t *testing.T) {
	c := NewCache(10)

	// No requests yet: hit rate must not divide by zero.
	s := c.Stats()
	assert.Equal(t, 0.0, s.HitRate)
	assert.Equal(t, int64(0), s.TotalRequests)

	c.Put("fp", sampleFix("a"))
	c.Get("fp")     // hit
	c.Get("other")  // miss
	c.Get("absent") // miss

	s = c.Stats()
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(1), s.HitCount)
	assert.InDelta(t, 1.0/3.0, s.HitRate, 1e-9)
	assert.Equal(t, 10, s.MaxSize)
}

func TestCache_Reset(t *testing.T) {
	c := NewCache(10)
	c.Put("fp", sampleFix("a"))
	c.Get("fp")

	c.Reset()

	s := c.Stats()
	assert.Equal(t, 0, s.Size)
	assert.Equal(t, int64(0), s.HitCount)
	assert.Equal(t, int64(0), s.TotalRequests)
	assert.Equal(t, 10, s.MaxSize, "reset keeps capacity")

	_, ok := c.Get("fp")
	assert.False(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("fp-%d", j%60)
				c.Put(key, sampleFix(key))
				c.Get(key)
				if j%50 == 0 {
					c.Stats()
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 50)
}
