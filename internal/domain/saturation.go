package domain

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// fetchDecay is the empirical base of the fetch saturation law.
const fetchDecay = 0.14

// Control names the factor that limits transport in a period.
type Control int

const (
	WindControlled Control = iota
	SnowfallControlled
)

func (c Control) String() string {
	switch c {
	case WindControlled:
		return "wind_controlled"
	case SnowfallControlled:
		return "snowfall_controlled"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// MarshalText encodes the control regime by name.
func (c Control) MarshalText() ([]byte, error) {
	switch c {
	case WindControlled, SnowfallControlled:
		return []byte(c.String()), nil
	default:
		return nil, fmt.Errorf("unknown control regime %d", int(c))
	}
}

// UnmarshalText decodes a control regime name.
func (c *Control) UnmarshalText(b []byte) error {
	switch string(b) {
	case "wind_controlled":
		*c = WindControlled
	case "snowfall_controlled":
		*c = SnowfallControlled
	default:
		return fmt.Errorf("unknown control regime %q", b)
	}
	return nil
}

// EncodeMsgpack writes the regime name as a msgpack str. Without it the
// encoder would pick MarshalText and emit bin.
func (c Control) EncodeMsgpack(enc *msgpack.Encoder) error {
	b, err := c.MarshalText()
	if err != nil {
		return err
	}
	return enc.EncodeString(string(b))
}

// DecodeMsgpack reads a regime name written by EncodeMsgpack.
func (c *Control) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return c.UnmarshalText([]byte(s))
}

// TransportResult is the outcome of the regime model for one period.
type TransportResult struct {
	Qupot   float64 `json:"qupot"` // wind transport capacity, kg/m
	Qspot   float64 `json:"qspot"` // snow supply limited capacity, kg/m
	Srwe    float64 `json:"srwe"`  // relocated water equivalent, mm
	Qinf    float64 `json:"qinf"`  // controlling capacity, kg/m
	Qt      float64 `json:"qt"`    // transport over the fetch, kg/m
	Control Control `json:"control"`
}

// ComputeTransport applies the regime decision and the fetch saturation law to
// a period's accumulated snow supply (mm) and wind capacity (kg/m).
func ComputeTransport(swe, qupot float64, p Params) (TransportResult, error) {
	if p.T == 0 {
		return TransportResult{}, &DomainError{Op: "compute transport", Reason: "transport distance T is zero"}
	}
	if err := p.Validate(); err != nil {
		return TransportResult{}, err
	}
	if err := requireFinite("snow water equivalent", swe); err != nil {
		return TransportResult{}, err
	}
	if err := requireFinite("wind transport capacity", qupot); err != nil {
		return TransportResult{}, err
	}

	res := TransportResult{
		Qupot: qupot,
		Qspot: 0.5 * p.T * swe,
		Srwe:  p.Theta * swe,
	}
	if res.Qupot > res.Qspot {
		res.Control = SnowfallControlled
		res.Qinf = 0.5 * p.T * res.Srwe
	} else {
		res.Control = WindControlled
		res.Qinf = res.Qupot
	}
	res.Qt = res.Qinf * SaturationFactor(p.F, p.T)

	for _, q := range []struct {
		name string
		v    float64
	}{{"qspot", res.Qspot}, {"srwe", res.Srwe}, {"qinf", res.Qinf}, {"qt", res.Qt}} {
		if err := requireFinite(q.name, q.v); err != nil {
			return TransportResult{}, err
		}
	}
	return res, nil
}

// requireFinite rejects accumulated quantities that overflowed. Each reading
// can be finite while the period sum is not.
func requireFinite(name string, v float64) error {
	if isFinite(v) {
		return nil
	}
	return &DomainError{Op: "compute transport", Reason: fmt.Sprintf("%s is not finite (%v)", name, v)}
}

// SaturationFactor is 1 − 0.14^(F/T): 0 for no fetch, approaching 1 as the
// fetch grows relative to T.
func SaturationFactor(f, t float64) float64 {
	return 1 - math.Pow(fetchDecay, f/t)
}
