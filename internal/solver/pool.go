// Package solver implements the VRP Solver component (§4.4): construction
// of an initial solution via parallel cheapest insertion, followed by a
// time-bounded local search (plain 2-opt/Or-opt for small instances, a
// guided-local-search-style penalty escalation for larger ones).
package solver

import "sync"

// scratchPool pools the transient slices the solver allocates once per
// construction/local-search pass, so repeated solves under sustained load
// don't churn the allocator the way a fresh make() per call would.
type scratchPool struct {
	intSlices   sync.Pool
	floatSlices sync.Pool
	boolSlices  sync.Pool
}

var globalScratch = &scratchPool{
	intSlices: sync.Pool{
		New: func() any {
			s := make([]int, 0, 128)
			return &s
		},
	},
	floatSlices: sync.Pool{
		New: func() any {
			s := make([]float64, 0, 128)
			return &s
		},
	},
	boolSlices: sync.Pool{
		New: func() any {
			s := make([]bool, 0, 128)
			return &s
		},
	},
}

// getScratch returns the package-global scratch pool.
func getScratch() *scratchPool { return globalScratch }

func (p *scratchPool) acquireInts() *[]int {
	s := p.intSlices.Get().(*[]int)
	*s = (*s)[:0]
	return s
}

func (p *scratchPool) releaseInts(s *[]int) {
	if s == nil {
		return
	}
	p.intSlices.Put(s)
}

func (p *scratchPool) acquireFloats() *[]float64 {
	s := p.floatSlices.Get().(*[]float64)
	*s = (*s)[:0]
	return s
}

func (p *scratchPool) releaseFloats(s *[]float64) {
	if s == nil {
		return
	}
	p.floatSlices.Put(s)
}

func (p *scratchPool) acquireBools(n int) *[]bool {
	s := p.boolSlices.Get().(*[]bool)
	if cap(*s) < n {
		*s = make([]bool, n)
	} else {
		*s = (*s)[:n]
		for i := range *s {
			(*s)[i] = false
		}
	}
	return s
}

func (p *scratchPool) releaseBools(s *[]bool) {
	if s == nil {
		return
	}
	p.boolSlices.Put(s)
}
