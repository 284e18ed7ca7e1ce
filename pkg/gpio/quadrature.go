package gpio

// steps maps (previous<<2 | current) of the two-bit CLK/DT state to a
// quarter-step direction. Invalid jumps (both bits changed) and no-change
// entries are 0.
var steps = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// rest is the detent position: both lines pulled high.
const rest = 0b11

// Quadrature decodes CLK/DT levels into detents. A detent is reported only
// when the encoder returns to rest after at least three quarter-steps in the
// same direction, so bounces and half turns produce nothing.
//
// Clockwise (CLK leading DT) is +1.
type Quadrature struct {
	state uint8
	acc   int8
}

// NewQuadrature returns a decoder primed with the current line levels.
func NewQuadrature(clk, dt Level) *Quadrature {
	return &Quadrature{state: encode(clk, dt)}
}

func encode(clk, dt Level) uint8 {
	var s uint8
	if clk {
		s |= 0b10
	}
	if dt {
		s |= 0b01
	}
	return s
}

// Update feeds the latest levels and returns +1, -1, or 0.
func (q *Quadrature) Update(clk, dt Level) int {
	cur := encode(clk, dt)
	if cur == q.state {
		return 0
	}
	q.acc += steps[q.state<<2|cur]
	q.state = cur
	if cur != rest {
		return 0
	}
	acc := q.acc
	q.acc = 0
	switch {
	case acc >= 3:
		return 1
	case acc <= -3:
		return -1
	default:
		return 0
	}
}
