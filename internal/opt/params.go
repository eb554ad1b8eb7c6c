package opt

// Parameters drive the annealing schedule. The iteration threshold per
// temperature is Iiter multiplied by the initial sequence length.
type Parameters struct {
	// A is the cooling rate, in (0,1).
	A float64 `yaml:"a" json:"a"`
	// Iiter is the iterations-per-temperature multiplier.
	Iiter int `yaml:"iiter" json:"iiter"`
	// P is the penalty added to the cost of infeasible solutions.
	P float64 `yaml:"p" json:"p"`
	// K softens the Metropolis acceptance: exp(-delta / (K*T)).
	K float64 `yaml:"k" json:"k"`
	// T0 and TF are the start and stop temperatures.
	T0 float64 `yaml:"t0" json:"t0"`
	TF float64 `yaml:"tf" json:"tf"`
	// NonImproving caps the number of cooling steps without a new best.
	NonImproving int `yaml:"nonImproving" json:"nonImproving"`
}

// DefaultParameters mirrors the parameterization the solver was tuned with.
func DefaultParameters() Parameters {
	return Parameters{
		A:            0.98,
		Iiter:        5000,
		P:            400,
		K:            1.0 / 9.0,
		T0:           30,
		TF:           0.1,
		NonImproving: 100,
	}
}

// normalized fills zero values with defaults so partial YAML/JSON overrides
// behave.
func (p Parameters) normalized() Parameters {
	def := DefaultParameters()
	if p.A <= 0 || p.A >= 1 {
		p.A = def.A
	}
	if p.Iiter <= 0 {
		p.Iiter = def.Iiter
	}
	if p.P <= 0 {
		p.P = def.P
	}
	if p.K <= 0 {
		p.K = def.K
	}
	if p.T0 <= 0 {
		p.T0 = def.T0
	}
	if p.TF <= 0 {
		p.TF = def.TF
	}
	if p.NonImproving <= 0 {
		p.NonImproving = def.NonImproving
	}
	return p
}
