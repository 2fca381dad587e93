package cull

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// DefaultProgressEvery is the default number of triangles between progress
// reports.
const DefaultProgressEvery = 200

// chunkSize is the number of consecutive triangles a worker claims at once.
const chunkSize = 256

// ProgressFunc observes pass progress. Calls are serialized.
type ProgressFunc func(done, total int)

// Pass classifies every triangle of a mesh and collects the visible ones.
type Pass struct {
	Classifier    *Classifier
	Workers       int // <= 0 means runtime.NumCPU()
	ProgressEvery int // <= 0 means DefaultProgressEvery
	Progress      ProgressFunc
}

// Run classifies each triangle of m, placed in the world by world, exactly
// once. The returned set does not depend on Workers. On the first
// classification error (or context cancellation) the remaining work is
// abandoned and no set is returned.
func (p *Pass) Run(ctx context.Context, m *mesh.Mesh, world math.Mat4) (Set, error) {
	flat := m.FlatIndices()
	total := len(flat) / 3
	if total == 0 {
		return Set{}, nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunks := (total + chunkSize - 1) / chunkSize
	workers = min(workers, chunks)

	progress := p.progress(total)

	g, gctx := errgroup.WithContext(ctx)
	starts := make(chan int)
	g.Go(func() error {
		defer close(starts)
		for start := 0; start < total; start += chunkSize {
			select {
			case starts <- start:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	locals := make([]Set, workers)
	for w := range locals {
		w := w
		locals[w] = Set{}
		g.Go(func() error {
			for start := range starts {
				if err := gctx.Err(); err != nil {
					return err
				}
				end := min(start+chunkSize, total)
				for gi := start; gi < end; gi++ {
					tri := mesh.TriangleAt(gi, flat, m.Vertices, world)
					visible, err := p.Classifier.Classify(tri)
					if err != nil {
						return fmt.Errorf("triangle %d: %w", gi, err)
					}
					if visible {
						locals[w].Add(gi)
					}
					progress()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := make(Set)
	for _, local := range locals {
		kept.Merge(local)
	}
	if p.Progress != nil {
		p.Progress(total, total)
	}
	return kept, nil
}

// progress returns a per-triangle tick that reports every ProgressEvery
// triangles.
func (p *Pass) progress(total int) func() {
	if p.Progress == nil {
		return func() {}
	}
	every := p.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}
	var (
		done atomic.Int64
		mu   sync.Mutex
	)
	return func() {
		n := int(done.Add(1))
		if n%every != 0 || n == total {
			return
		}
		mu.Lock()
		p.Progress(n, total)
		mu.Unlock()
	}
}
