package reader

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/mnmetro-config/pkg/metro/models"
)

func TestCorridorPathSkipsUnlocatedNodes(t *testing.T) {
	r := loadFixture(t)

	path, err := r.CorridorPath(northbound)
	if err != nil {
		t.Fatalf("CorridorPath failed: %v", err)
	}
	// only E has both coordinates
	if len(path) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(path))
	}
	if path[0] != (orb.Point{-93.265, 44.96}) {
		t.Errorf("Unexpected point %v", path[0])
	}
}

func TestCorridorLength(t *testing.T) {
	r := loadFixture(t)

	got, err := r.CorridorLength(southbound)
	if err != nil {
		t.Fatalf("CorridorLength failed: %v", err)
	}

	want := geo.Distance(orb.Point{-93.27, 44.9486}, orb.Point{-93.2712, 44.948}) +
		geo.Distance(orb.Point{-93.2712, 44.948}, orb.Point{-93.274, 44.94})
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("CorridorLength = %f, want %f", got, want)
	}
	if got < 900 || got > 1200 {
		t.Errorf("CorridorLength = %f m, expected roughly one kilometre", got)
	}

	for _, c := range []models.Corridor{northbound, crosstown} {
		l, err := r.CorridorLength(c)
		if err != nil {
			t.Fatalf("CorridorLength(%s) failed: %v", c, err)
		}
		if l != 0 {
			t.Errorf("CorridorLength(%s) = %f, want 0", c, l)
		}
	}
}

func TestCorridorLengthUnknownCorridor(t *testing.T) {
	r := loadFixture(t)

	if _, err := r.CorridorLength(models.Corridor{Route: "I-694", Direction: "EB"}); !errors.Is(err, ErrCorridorNotFound) {
		t.Errorf("Expected ErrCorridorNotFound, got %v", err)
	}
}
