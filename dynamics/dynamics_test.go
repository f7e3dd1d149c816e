package dynamics

import (
	"errors"
	"testing"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/body"
)

func TestValidateRequiresExactlyOnePositionAndGravity(t *testing.T) {
	err := Validate([]Dynamics{})
	if err == nil {
		t.Fatal("expected an error validating an empty dynamics list")
	}
	if !errors.Is(err, astroerr.Sentinel(astroerr.SetupInvalid)) {
		t.Fatalf("expected SetupInvalid, got %v", err)
	}

	valid := []Dynamics{
		PositionDerivative{},
		&CentralBodyGravity{Body: body.Earth},
	}
	if err := Validate(valid); err != nil {
		t.Fatalf("valid dynamics list should pass: %s", err)
	}
}

func TestValidateRejectsDuplicateDragOrThruster(t *testing.T) {
	drag1, err := NewAtmosphericDrag(body.Earth)
	if err != nil {
		t.Fatalf("NewAtmosphericDrag: %s", err)
	}
	drag2, err := NewAtmosphericDrag(body.Earth)
	if err != nil {
		t.Fatalf("NewAtmosphericDrag: %s", err)
	}
	dyns := []Dynamics{
		PositionDerivative{},
		&CentralBodyGravity{Body: body.Earth},
		drag1,
		drag2,
	}
	if err := Validate(dyns); err == nil {
		t.Fatal("expected an error with two drag contributors")
	}
}
