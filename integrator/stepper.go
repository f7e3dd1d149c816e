package integrator

// Tableau is an explicit Runge-Kutta Butcher tableau with an embedded
// lower-order solution for step-error estimation, shared by the three
// adaptive steppers this package provides.
type Tableau struct {
	Name     string
	A        [][]float64 // strictly lower-triangular stage coefficients
	C        []float64   // stage nodes (fraction of h)
	B        []float64   // high-order solution weights
	BHat     []float64   // embedded (lower-order) weights, for error estimate
	Order    int         // order of B
	EmbedOrd int         // order of BHat
}

// CashKarp54 is the Cash-Karp 5(4) tableau.
var CashKarp54 = Tableau{
	Name: "cash-karp-5(4)",
	C:    []float64{0, 1.0 / 5, 3.0 / 10, 3.0 / 5, 1, 7.0 / 8},
	A: [][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{3.0 / 10, -9.0 / 10, 6.0 / 5},
		{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27},
		{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096},
	},
	B:        []float64{37.0 / 378, 0, 250.0 / 621, 125.0 / 594, 0, 512.0 / 1771},
	BHat:     []float64{2825.0 / 27648, 0, 18575.0 / 48384, 13525.0 / 55296, 277.0 / 14336, 1.0 / 4},
	Order:    5,
	EmbedOrd: 4,
}

// DormandPrince54 is the Dormand-Prince 5(4) tableau (the "ode45" family).
var DormandPrince54 = Tableau{
	Name: "dormand-prince-5(4)",
	C:    []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	A: [][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	B:        []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	BHat:     []float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40},
	Order:    5,
	EmbedOrd: 4,
}

// Fehlberg78 is the (abridged) Fehlberg 7(8) tableau, used for tight
// tolerances that call for the highest-order option.
var Fehlberg78 = Tableau{
	Name: "fehlberg-7(8)",
	C:    []float64{0, 2.0 / 27, 1.0 / 9, 1.0 / 6, 5.0 / 12, 1.0 / 2, 5.0 / 6, 1.0 / 6, 2.0 / 3, 1.0 / 3, 1, 0, 1},
	A: [][]float64{
		{},
		{2.0 / 27},
		{1.0 / 36, 1.0 / 12},
		{1.0 / 24, 0, 1.0 / 8},
		{5.0 / 12, 0, -25.0 / 16, 25.0 / 16},
		{1.0 / 20, 0, 0, 1.0 / 4, 1.0 / 5},
		{-25.0 / 108, 0, 0, 125.0 / 108, -65.0 / 27, 125.0 / 54},
		{31.0 / 300, 0, 0, 0, 61.0 / 225, -2.0 / 9, 13.0 / 900},
		{2, 0, 0, -53.0 / 6, 704.0 / 45, -107.0 / 9, 67.0 / 90, 3},
		{-91.0 / 108, 0, 0, 23.0 / 108, -976.0 / 135, 311.0 / 54, -19.0 / 60, 17.0 / 6, -1.0 / 12},
		{2383.0 / 4100, 0, 0, -341.0 / 164, 4496.0 / 1025, -301.0 / 82, 2133.0 / 4100, 45.0 / 82, 45.0 / 164, 18.0 / 41},
		{3.0 / 205, 0, 0, 0, 0, -6.0 / 41, -3.0 / 205, -3.0 / 41, 3.0 / 41, 6.0 / 41, 0},
		{-1777.0 / 4100, 0, 0, -341.0 / 164, 4496.0 / 1025, -289.0 / 82, 2193.0 / 4100, 51.0 / 82, 33.0 / 164, 12.0 / 41, 0, 1},
	},
	B: []float64{
		41.0 / 840, 0, 0, 0, 0, 34.0 / 105, 9.0 / 35, 9.0 / 35, 9.0 / 280, 9.0 / 280, 41.0 / 840, 0, 0,
	},
	BHat: []float64{
		0, 0, 0, 0, 0, 34.0 / 105, 9.0 / 35, 9.0 / 35, 9.0 / 280, 9.0 / 280, 0, 41.0 / 840, 41.0 / 840,
	},
	Order:    8,
	EmbedOrd: 7,
}
