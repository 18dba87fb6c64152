package problem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/perfDB/lib/db/codec"
)

// --------------------------------------------------------------------------
// Problem description
// --------------------------------------------------------------------------

const fieldSeparator = "x"

type Direction string

const (
	DirForward         Direction = "F"
	DirBackwardData    Direction = "B"
	DirBackwardWeights Direction = "W"
)

func (d Direction) valid() bool {
	switch d {
	case DirForward, DirBackwardData, DirBackwardWeights:
		return true
	}
	return false
}

// ConvProblem describes a 2-D convolution. It is used as the KEY of a
// database record.
type ConvProblem struct {
	Batch       int
	InChannels  int
	InH, InW    int
	OutChannels int
	FilterH     int
	FilterW     int
	PadH, PadW  int
	StrideH     int
	StrideW     int
	DilationH   int
	DilationW   int
	Layout      string // e.g. NCHW
	DataType    string // e.g. FP32
	Direction   Direction
}

// numericFields returns pointers to the integer fields in serialization order.
func (p *ConvProblem) numericFields() []*int {
	return []*int{
		&p.Batch, &p.InChannels, &p.InH, &p.InW,
		&p.OutChannels, &p.FilterH, &p.FilterW,
		&p.PadH, &p.PadW, &p.StrideH, &p.StrideW, &p.DilationH, &p.DilationW,
	}
}

// Serialize writes the problem as its fields joined by "x", for example
//
//	1x3x227x227x96x11x11x0x0x4x4x1x1xNCHWxFP32xF
func (p ConvProblem) Serialize(sb *strings.Builder) {
	for i, field := range p.numericFields() {
		if i > 0 {
			sb.WriteString(fieldSeparator)
		}
		sb.WriteString(strconv.Itoa(*field))
	}
	for _, s := range []string{p.Layout, p.DataType, string(p.Direction)} {
		sb.WriteString(fieldSeparator)
		sb.WriteString(s)
	}
}

func (p *ConvProblem) Deserialize(s string) error {
	fields := strings.Split(s, fieldSeparator)
	numeric := p.numericFields()
	if len(fields) != len(numeric)+3 {
		return fmt.Errorf("conv problem: expected %d fields, got %d", len(numeric)+3, len(fields))
	}

	var parsed ConvProblem
	for i, field := range parsed.numericFields() {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return fmt.Errorf("conv problem: invalid field %d %q", i, fields[i])
		}
		*field = v
	}
	rest := fields[len(numeric):]
	parsed.Layout, parsed.DataType, parsed.Direction = rest[0], rest[1], Direction(rest[2])
	if err := parsed.Validate(); err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Validate checks the non numeric fields. They must be non-empty, free of
// reserved characters and must not contain the field separator.
func (p ConvProblem) Validate() error {
	for name, s := range map[string]string{"layout": p.Layout, "data type": p.DataType} {
		if s == "" || strings.Contains(s, fieldSeparator) {
			return fmt.Errorf("conv problem: invalid %s %q", name, s)
		}
		if err := codec.ValidateText(s); err != nil {
			return fmt.Errorf("conv problem: %s: %w", name, err)
		}
	}
	if !p.Direction.valid() {
		return fmt.Errorf("conv problem: invalid direction %q", p.Direction)
	}
	return nil
}

func (p ConvProblem) String() string {
	return codec.SerializeToString(p)
}

// --------------------------------------------------------------------------
// Tuning values
// --------------------------------------------------------------------------

// PerfConfig is the performance configuration of a solver: a fixed number of
// integer tunables, stored as "4,4,1".
type PerfConfig struct {
	Arity  int // expected number of tunables, 0 accepts any number
	Params codec.IntList
}

func NewPerfConfig(arity int, params ...int) *PerfConfig {
	return &PerfConfig{Arity: arity, Params: params}
}

func (c PerfConfig) Serialize(sb *strings.Builder) {
	c.Params.Serialize(sb)
}

func (c *PerfConfig) Deserialize(s string) error {
	var params codec.IntList
	if err := params.Deserialize(s); err != nil {
		return err
	}
	if c.Arity > 0 && len(params) != c.Arity {
		return fmt.Errorf("perf config: expected %d values, got %d", c.Arity, len(params))
	}
	c.Params = params
	return nil
}

// Valid reports whether the config has the expected arity and no negative
// tunables.
func (c PerfConfig) Valid() bool {
	if c.Arity > 0 && len(c.Params) != c.Arity {
		return false
	}
	for _, p := range c.Params {
		if p < 0 {
			return false
		}
	}
	return len(c.Params) > 0
}
