package domain

import "math"

// Default physical parameters of the transport model.
const (
	DefaultTransportDistance = 3000.0  // T, m
	DefaultFetchDistance     = 30000.0 // F, m
	DefaultRelocation        = 0.5     // θ
)

// Params are the physical parameters of one analysis.
type Params struct {
	T     float64 `json:"t"`     // characteristic transport distance, m
	F     float64 `json:"f"`     // fetch distance, m
	Theta float64 `json:"theta"` // relocation coefficient
}

// DefaultParams returns T=3000 m, F=30000 m, θ=0.5.
func DefaultParams() Params {
	return Params{T: DefaultTransportDistance, F: DefaultFetchDistance, Theta: DefaultRelocation}
}

// Validate returns a *ValidationError when T ≤ 0, F < 0, θ ∉ [0,1], or any
// value is not finite.
func (p Params) Validate() error {
	switch {
	case !isFinite(p.T) || p.T <= 0:
		return invalidParam("T", "transport distance must be a positive number")
	case !isFinite(p.F) || p.F < 0:
		return invalidParam("F", "fetch distance must not be negative")
	case math.IsNaN(p.Theta) || p.Theta < 0 || p.Theta > 1:
		return invalidParam("theta", "relocation coefficient must be within [0, 1]")
	}
	return nil
}

// ParamOverrides carries optional per-request replacements of the service
// defaults. Nil fields keep the default.
type ParamOverrides struct {
	T     *float64 `json:"t,omitempty"`
	F     *float64 `json:"f,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
}

// Resolve applies the overrides on top of base.
func (o ParamOverrides) Resolve(base Params) Params {
	if o.T != nil {
		base.T = *o.T
	}
	if o.F != nil {
		base.F = *o.F
	}
	if o.Theta != nil {
		base.Theta = *o.Theta
	}
	return base
}
