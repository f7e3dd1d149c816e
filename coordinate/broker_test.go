package coordinate

import (
	"errors"
	"testing"

	"github.com/loftorbital/ostk-astro-go/astroerr"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	b := NewBroker()
	if err := b.AddSubset(NewCartesianPosition()); err != nil {
		t.Fatalf("AddSubset(position): %s", err)
	}
	if err := b.AddSubset(NewCartesianVelocity()); err != nil {
		t.Fatalf("AddSubset(velocity): %s", err)
	}
	if err := b.AddSubset(NewScalarSubset(Mass)); err != nil {
		t.Fatalf("AddSubset(mass): %s", err)
	}
	return b
}

func TestBrokerOffsetsAreContiguous(t *testing.T) {
	b := newTestBroker(t)
	if b.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", b.Size())
	}
	posOff, ok := b.OffsetOf(CartesianPosition)
	if !ok || posOff != 0 {
		t.Fatalf("position offset = (%d,%v), want (0,true)", posOff, ok)
	}
	velOff, ok := b.OffsetOf(CartesianVelocity)
	if !ok || velOff != 3 {
		t.Fatalf("velocity offset = (%d,%v), want (3,true)", velOff, ok)
	}
	massOff, ok := b.OffsetOf(Mass)
	if !ok || massOff != 6 {
		t.Fatalf("mass offset = (%d,%v), want (6,true)", massOff, ok)
	}
}

func TestAddSubsetRejectsDuplicate(t *testing.T) {
	b := newTestBroker(t)
	err := b.AddSubset(NewScalarSubset(Mass))
	if err == nil {
		t.Fatal("expected an error re-registering the same subset name")
	}
	if !errors.Is(err, astroerr.Sentinel(astroerr.SetupInvalid)) {
		t.Fatalf("expected SetupInvalid, got %v", err)
	}
}

func TestExtractAndSetRoundTrip(t *testing.T) {
	b := newTestBroker(t)
	vec := make([]float64, b.Size())
	if err := b.Set(vec, CartesianPosition, []float64{1, 2, 3}); err != nil {
		t.Fatalf("Set: %s", err)
	}
	got, err := b.Extract(vec, CartesianPosition)
	if err != nil {
		t.Fatalf("Extract: %s", err)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Extract(position) = %v, want %v", got, want)
		}
	}
}

func TestExtractUnknownSubset(t *testing.T) {
	b := newTestBroker(t)
	vec := make([]float64, b.Size())
	if _, err := b.Extract(vec, "nonexistent"); err == nil {
		t.Fatal("expected an error extracting an unregistered subset")
	}
}

func TestSetWrongSize(t *testing.T) {
	b := newTestBroker(t)
	vec := make([]float64, b.Size())
	if err := b.Set(vec, CartesianPosition, []float64{1, 2}); err == nil {
		t.Fatal("expected an error setting a subset with the wrong length")
	}
}

func TestExtractMany(t *testing.T) {
	b := newTestBroker(t)
	vec := make([]float64, b.Size())
	_ = b.Set(vec, CartesianPosition, []float64{1, 2, 3})
	_ = b.Set(vec, Mass, []float64{500})
	got, err := b.ExtractMany(vec, Mass, CartesianPosition)
	if err != nil {
		t.Fatalf("ExtractMany: %s", err)
	}
	want := []float64{500, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractMany = %v, want %v", got, want)
		}
	}
}

func TestHasSubset(t *testing.T) {
	b := newTestBroker(t)
	if !b.HasSubset(Mass) {
		t.Fatal("HasSubset(Mass) should be true")
	}
	if b.HasSubset("unknown") {
		t.Fatal("HasSubset(unknown) should be false")
	}
}

func TestBuiltinSubset(t *testing.T) {
	for _, name := range []string{CartesianPosition, CartesianVelocity, Mass, SurfaceArea, DragCoefficient, BallisticCoefficient} {
		if _, ok := BuiltinSubset(name); !ok {
			t.Fatalf("BuiltinSubset(%q) should be known", name)
		}
	}
	if _, ok := BuiltinSubset("not-a-subset"); ok {
		t.Fatal("BuiltinSubset(unknown) should report ok=false")
	}
}
