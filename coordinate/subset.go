package coordinate

// Subset names a contiguous, fixed-size block of a State's underlying
// vector and defines how values in that block combine and change frame.
// The zero-value behavior (element-wise add/subtract, identity frame
// conversion) is correct for most subsets; Cartesian position/velocity
// override InFrame because they must be rotated jointly.
type Subset interface {
	Name() string
	Size() int
	// Add returns a+b, both of length Size().
	Add(a, b []float64) []float64
	// Subtract returns a-b, both of length Size().
	Subtract(a, b []float64) []float64
}

// FrameAware is implemented by subsets whose values are frame-dependent
// (position, velocity) and therefore need a broker-level hook to rotate
// jointly rather than independently.
type FrameAware interface {
	Subset
	// InFrame converts the value of this subset, given the *other*
	// subset values present in the same State (so e.g. velocity can see
	// position when applying a rotating-frame correction), into target.
	InFrame(value []float64, full *State, target Frame) []float64
}

// Frame is an opaque identifier for a reference frame; concrete frame
// implementations live in package frame and satisfy this via duck typing
// (Name returns a stable identifier compared by subsets).
type Frame interface {
	Name() string
}

type baseSubset struct {
	name string
	size int
}

// NewScalarSubset builds a Subset for a single scalar quantity (mass,
// drag coefficient, ballistic coefficient, ...): element-wise add/subtract,
// no frame dependence.
func NewScalarSubset(name string) Subset {
	return &baseSubset{name: name, size: 1}
}

// NewVectorSubset builds a Subset of the given fixed size with plain
// element-wise add/subtract and no frame dependence.
func NewVectorSubset(name string, size int) Subset {
	return &baseSubset{name: name, size: size}
}

func (b *baseSubset) Name() string { return b.name }
func (b *baseSubset) Size() int    { return b.size }

func (b *baseSubset) Add(a, c []float64) []float64 {
	out := make([]float64, b.size)
	for i := range out {
		out[i] = a[i] + c[i]
	}
	return out
}

func (b *baseSubset) Subtract(a, c []float64) []float64 {
	out := make([]float64, b.size)
	for i := range out {
		out[i] = a[i] - c[i]
	}
	return out
}

// Built-in subset names, shared across dynamics/propagator/stm so callers
// can look a subset up by a stable string rather than a concrete type.
const (
	Mass                 = "mass"
	SurfaceArea          = "surface_area"
	DragCoefficient      = "drag_coefficient"
	BallisticCoefficient = "ballistic_coefficient"
)

// BuiltinSubset constructs the concrete Subset for one of the names a
// dynamics.Dynamics declares via ReadSubsets/WriteSubsets, so
// propagator.New can populate a Broker purely from dynamics metadata
// without dynamics needing to import coordinate subset constructors
// directly. ok is false for a name this package does not know.
func BuiltinSubset(name string) (Subset, bool) {
	switch name {
	case CartesianPosition:
		return NewCartesianPosition(), true
	case CartesianVelocity:
		return NewCartesianVelocity(), true
	case Mass:
		return NewScalarSubset(Mass), true
	case SurfaceArea:
		return NewScalarSubset(SurfaceArea), true
	case DragCoefficient:
		return NewScalarSubset(DragCoefficient), true
	case BallisticCoefficient:
		return NewScalarSubset(BallisticCoefficient), true
	default:
		return nil, false
	}
}
