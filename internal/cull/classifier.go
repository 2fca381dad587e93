package cull

import (
	"github.com/Faultbox/occlubake/internal/occlusion"
	"github.com/Faultbox/occlubake/pkg/math"
	"github.com/Faultbox/occlubake/pkg/mesh"
)

// Observer is a fixed world-space viewpoint.
type Observer struct {
	Name     string
	Position math.Vec3
}

// Classifier decides whether a triangle is visible from any observer.
// It only reads its fields, so one Classifier may serve many goroutines as
// long as Oracle and Points are themselves safe for concurrent use.
type Classifier struct {
	Oracle      occlusion.Oracle
	Observers   []Observer
	Bias        float32 // distance the sample is pulled toward the observer
	MultiSample bool    // also test the three corners
	Points      PointSink
}

// Classify reports whether tri is visible from at least one observer.
// Observers are tried in order and the first visible sample wins. A
// triangle facing away from an observer is skipped for that observer
// without any query.
func (c *Classifier) Classify(tri mesh.Triangle) (bool, error) {
	center := tri.Centroid()
	normal := tri.Normal()

	for _, obs := range c.Observers {
		view := center.Sub(obs.Position).Normalize()
		if view.Dot(normal) > 0 {
			continue
		}

		visible, err := c.PointVisible(obs.Position, center)
		if err != nil || visible {
			return visible, err
		}

		if !c.MultiSample {
			continue
		}
		for _, corner := range tri.Corners() {
			visible, err := c.PointVisible(obs.Position, corner)
			if err != nil || visible {
				return visible, err
			}
		}
	}
	return false, nil
}

// PointVisible reports whether target can be seen from eye. The query end
// is pulled toward eye by Bias so it does not graze the sampled surface;
// when the pull would overshoot the eye the unbiased target is used.
func (c *Classifier) PointVisible(eye, target math.Vec3) (bool, error) {
	dir := target.Sub(eye)
	dist := dir.Length()

	biased := target.Sub(dir.Normalize().Scale(c.Bias))
	if eye.Distance(biased) > dist {
		biased = target
	}

	blocked, err := c.Oracle.Obstructed(eye, biased)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}
	if c.Points != nil {
		c.Points.Record(target)
	}
	return true, nil
}
