package main

import (
	"slices"
	"strings"
	"time"

	"github.com/fossillogic/fossil-test/assert"
	"github.com/fossillogic/fossil-test/benchmark"
	"github.com/fossillogic/fossil-test/registry"
	"github.com/fossillogic/fossil-test/types"
)

// The bundled groups double as a smoke test of the engine and as usage
// samples. Every case in them is expected to pass.
func init() {
	registry.Export("basic", basicGroup)
	registry.Export("fixtures", fixturesGroup)
	registry.Export("marks", marksGroup)
	registry.Export("bench", benchGroup)
}

func basicGroup(env *types.Environment) {
	s := types.NewSuite("basic")
	s.Add("integer_math", func(t *assert.T) {
		assert.Equal(t, 4, 2+2)
		assert.Greater(t, 3, 2)
		assert.Less(t, -1, 0)
	}, types.WithTags(types.TagFast))
	s.Add("strings", func(t *assert.T) {
		assert.Contains(t, "fossil logic", "logic")
		assert.Equal(t, "FOSSIL", strings.ToUpper("fossil"))
		t.Expect(strings.HasPrefix("fossil", "fos"), "missing prefix")
	}, types.WithTags(types.TagFast))
	s.Add("floating_point", func(t *assert.T) {
		assert.InDelta(t, 0.3, 0.1+0.2, 1e-9)
	})
	s.Add("slices", func(t *assert.T) {
		data := []int{5, 1, 4, 2, 8}
		slices.Sort(data)
		assert.Len(t, data, 5)
		t.Sanity(slices.IsSorted(data), "slice not sorted: %v", data)
	}, types.WithPriority(10))
	env.RegisterSuite(s)
}

type counter struct {
	value int
}

func fixturesGroup(env *types.Environment) {
	var c *counter
	s := types.NewSuite("fixtures")
	s.Setup = func() { c = &counter{} }
	s.Teardown = func() { c = nil }

	s.Add("starts_at_zero", func(t *assert.T) {
		assert.NotNil(t, c)
		assert.Equal(t, 0, c.value)
	}, types.WithSetup(func() { c.value = 0 }))
	// setup runs once per case, so the counter carries across repeats
	s.Add("increments", func(t *assert.T) {
		c.value++
		assert.Equal(t, t.Iteration()+1, c.value)
	}, types.WithSetup(func() { c.value = 0 }), types.WithTeardown(func() { c.value = 0 }))
	env.RegisterSuite(s)
}

func marksGroup(env *types.Environment) {
	s := types.NewSuite("marks")
	s.Add("expected_failure", func(t *assert.T) {
		assert.Equal(t, 1, 2, "known bug, tracked as expected failure")
	}, types.WithMark(types.MarkFail), types.WithTags(types.TagBug))
	s.Add("expected_panic", func(t *assert.T) {
		var m map[string]int
		m["boom"] = 1
	}, types.WithMark(types.MarkError), types.WithTags(types.TagRobustness))
	s.Add("not_ready", func(t *assert.T) {
		t.Fail("never runs")
	}, types.WithMark(types.MarkSkip))
	s.Add("runtime_skip", func(t *assert.T) {
		t.Skip("feature disabled on this platform")
	})
	env.RegisterSuite(s)
}

func bubbleSort(data []int) {
	for i := 0; i < len(data)-1; i++ {
		for j := 0; j < len(data)-i-1; j++ {
			if data[j] > data[j+1] {
				data[j], data[j+1] = data[j+1], data[j]
			}
		}
	}
}

func insertionSort(data []int) {
	for i := 1; i < len(data); i++ {
		key, j := data[i], i-1
		for j >= 0 && data[j] > key {
			data[j+1] = data[j]
			j--
		}
		data[j+1] = key
	}
}

func benchGroup(env *types.Environment) {
	s := types.NewSuite("bench")
	for _, algo := range []struct {
		name string
		sort func([]int)
	}{
		{"bubble_sort", bubbleSort},
		{"insertion_sort", insertionSort},
	} {
		name, sort := algo.name, algo.sort
		mark := benchmark.New(name)
		s.Add(name, func(t *assert.T) {
			data := []int{5, 1, 4, 2, 8, 9, 3, 7, 6}
			elapsed := mark.Measure(func() { sort(data) })
			t.Assert(slices.IsSorted(data), "%s left %v unsorted", name, data)
			benchmark.Within(t, elapsed, time.Second)
		}, types.WithTags(types.TagPerformance))
	}
	env.RegisterSuite(s)
}
