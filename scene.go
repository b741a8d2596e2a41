// Copyright 2025 The GitGud Authors. All rights reserved.

package glade

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gitgud/glade/config"
	"github.com/gitgud/glade/object"
)

// populate fills the scene in a fixed order. Insertion order is draw
// order for the opaque pass, so the floor goes in first.
func (a *App) populate() error {
	steps := []func() error{
		a.loadFloor,
		a.loadStatue,
		a.loadTrees,
		a.loadBenches,
		a.loadBushes,
		a.scatterPlants,
		a.loadSolarLight,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) loadFloor() error {
	m, err := a.load("quad.obj")
	if err != nil {
		return err
	}
	floor := a.objects.New()
	floor.Model = m
	place(floor, a.cfg.Scene.Floor)
	return nil
}

func (a *App) loadStatue() error {
	m, err := a.load("statue.obj")
	if err != nil {
		return err
	}
	statue := a.objects.New()
	statue.Model = m
	place(statue, a.cfg.Scene.Statue)
	return nil
}

func (a *App) loadTrees() error {
	m, err := a.load("tree.obj")
	if err != nil {
		return err
	}
	tree := a.objects.New()
	tree.Model = m
	place(tree, a.cfg.Scene.Tree)
	return nil
}

func (a *App) loadBenches() error {
	m, err := a.load("bench.obj")
	if err != nil {
		return err
	}
	bench := a.objects.New()
	bench.Model = m
	place(bench, a.cfg.Scene.Bench)
	return nil
}

func (a *App) loadBushes() error {
	m, err := a.load("bush.obj")
	if err != nil {
		return err
	}
	bush := a.objects.New()
	bush.Model = m
	place(bush, a.cfg.Scene.Bush)
	return nil
}

// scatterPlants sprinkles plants across the ground plane using the
// app's seeded generator.
func (a *App) scatterPlants() error {
	m, err := a.load("plant.obj")
	if err != nil {
		return err
	}
	for _, tr := range plantPlacements(a.rng, a.cfg.Scene.Plants) {
		plant := a.objects.New()
		plant.Model = m
		plant.Transform = tr
	}
	return nil
}

func (a *App) loadSolarLight() error {
	l := a.cfg.Scene.Light
	sun := a.objects.NewPointLight(l.Intensity, l.Radius, mgl32.Vec3(l.Color))
	sun.Transform.Translation = mgl32.Vec3(l.Position)
	return nil
}

// plantPlacements draws a random plant count and placement from rng.
// The count is uniform over [MinCount, MaxCount], x and z over
// [-Spread, Spread] and the isotropic scale over [MinScale, MaxScale];
// y stays on the ground plane.
func plantPlacements(rng *rand.Rand, sc config.Scatter) []object.Transform {
	count := sc.MinCount + rng.Intn(sc.MaxCount-sc.MinCount+1)
	out := make([]object.Transform, count)
	for i := range out {
		s := lerp(sc.MinScale, sc.MaxScale, rng.Float32())
		out[i] = object.Transform{
			Translation: mgl32.Vec3{
				lerp(-sc.Spread, sc.Spread, rng.Float32()),
				sc.Height,
				lerp(-sc.Spread, sc.Spread, rng.Float32()),
			},
			Scale: mgl32.Vec3{s, s, s},
		}
	}
	return out
}

// place copies a configured placement onto an entity's transform.
func place(o *object.Object, p config.Placement) {
	o.Transform.Translation = mgl32.Vec3(p.Translation)
	o.Transform.Rotation = mgl32.Vec3(p.Rotation)
	o.Transform.Scale = mgl32.Vec3(p.Scale)
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }
