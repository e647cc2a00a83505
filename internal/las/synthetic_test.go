package las

import "testing"

func TestSyntheticShape(t *testing.T) {
	opts := DefaultSyntheticOptions()
	opts.GroundPoints = 500
	opts.ClusterPoints = 100

	c := Synthetic(opts)

	if c.Len() != 600 {
		t.Fatalf("point count = %d, want 600", c.Len())
	}

	ground, building := 0, 0
	for _, class := range c.Classification {
		switch class {
		case ClassGround:
			ground++
		case ClassBuilding:
			building++
		}
	}
	if ground != 500 {
		t.Errorf("ground points = %d, want 500", ground)
	}
	if building != 100 {
		t.Errorf("cluster points = %d, want 100", building)
	}

	// Cluster points sit at or above the ground plane.
	for i := opts.GroundPoints; i < c.Len(); i++ {
		if c.Z[i] < opts.GroundZ {
			t.Fatalf("cluster point %d below ground: %g < %g", i, c.Z[i], opts.GroundZ)
		}
	}

	if c.HasColor() {
		t.Error("expected no color channels without WithColor")
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	opts := DefaultSyntheticOptions()
	opts.GroundPoints = 200
	opts.ClusterPoints = 50
	opts.Seed = 7

	a := Synthetic(opts)
	b := Synthetic(opts)

	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.X {
		if a.X[i] != b.X[i] || a.Y[i] != b.Y[i] || a.Z[i] != b.Z[i] {
			t.Fatalf("point %d differs between identical seeds", i)
		}
	}
}

func TestSyntheticWithColor(t *testing.T) {
	opts := DefaultSyntheticOptions()
	opts.GroundPoints = 100
	opts.ClusterPoints = 20
	opts.WithColor = true

	c := Synthetic(opts)

	if !c.HasColor() {
		t.Fatal("expected color channels")
	}
	if len(c.Red) != c.Len() || len(c.Green) != c.Len() || len(c.Blue) != c.Len() {
		t.Fatal("color channel lengths do not match point count")
	}
}
