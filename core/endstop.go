// Endstop sampling, debouncing, and block-termination logic.
//
// This keeps the teacher's Endstop/debounce vocabulary but not its
// mechanism: the teacher polls each switch on its own oversampling timer,
// decoupled from step generation. Here debouncing runs inline, once per
// step-event tick, driven by the same clock that emits steps — because a
// trip has to terminate the block by the end of the ISR that observed it,
// not on some later, independently-scheduled sample.
package core

// EndstopBit names one bit of the endstop_hit_bits word. A fixed-width
// bitfield is used instead of a collection of booleans so the debounce and
// trip logic can AND/OR the whole word in one instruction.
type EndstopBit uint16

const (
	BitXMin EndstopBit = 1 << iota
	BitXMax
	BitYMin
	BitYMax
	BitZMin
	BitZMax
	BitZ2Min
	BitZ2Max
	BitZProbe
	BitX2Min
	BitX2Max
)

// endstopSample holds the current and previous ISR's raw pin reads.
type endstopSample struct {
	current uint16
	old     uint16
}

func (s *endstopSample) update(bits uint16) {
	s.old = s.current
	s.current = bits
}

// test implements TEST_ENDSTOP: a level only counts once it has been seen
// on two consecutive samples.
func (s *endstopSample) test(bit EndstopBit) bool {
	return s.current&uint16(bit) != 0 && s.old&uint16(bit) != 0
}

// EndstopMonitor samples limit switches every tick, debounces them, and
// decides whether the current block must terminate this tick.
type EndstopMonitor struct {
	sample endstopSample

	enabled bool

	hitBits   uint16
	trigSteps [MaxAxes]int64

	performingHoming bool
	lockedZMotor     bool
	lockedZ2Motor    bool

	// probeRoutedAsHoming is true when the Z-probe is also configured as
	// the homing endstop for the axis currently homing; per the resolved
	// Open Question, a bare probe trigger never forces termination on its
	// own.
	probeRoutedAsHoming bool
}

// Enable arms or disarms endstop checking.
func (m *EndstopMonitor) Enable(on bool) { m.enabled = on }

// Enabled reports whether endstop checking is armed.
func (m *EndstopMonitor) Enabled() bool { return m.enabled }

// SetProbeRoutedAsHoming controls whether a probe trip forces block
// termination.
func (m *EndstopMonitor) SetProbeRoutedAsHoming(on bool) { m.probeRoutedAsHoming = on }

// SetHoming arms or disarms the dual-Z independent-motor-lock homing path.
func (m *EndstopMonitor) SetHoming(on bool) {
	m.performingHoming = on
	if !on {
		m.lockedZMotor = false
		m.lockedZ2Motor = false
	}
}

// Homing reports whether the dual-Z homing path is armed.
func (m *EndstopMonitor) Homing() bool { return m.performingHoming }

// HitBits returns the accumulated endstop_hit_bits word.
func (m *EndstopMonitor) HitBits() uint16 { return m.hitBits }

// ClearHitBits resets endstop_hit_bits, called once the foreground has
// consumed a trip report.
func (m *EndstopMonitor) ClearHitBits() { m.hitBits = 0 }

// TrigSteps returns the count_position captured at the instant axis
// tripped.
func (m *EndstopMonitor) TrigSteps(axis AxisIndex) int64 { return m.trigSteps[axis] }

func (m *EndstopMonitor) sampleBits(hw HardwareAdapter, cfg *Config) uint16 {
	var bits uint16
	if hw.EndstopRead(AxisX, EndstopMin) {
		bits |= uint16(BitXMin)
	}
	if hw.EndstopRead(AxisX, EndstopMax) {
		bits |= uint16(BitXMax)
	}
	if hw.EndstopRead(AxisY, EndstopMin) {
		bits |= uint16(BitYMin)
	}
	if hw.EndstopRead(AxisY, EndstopMax) {
		bits |= uint16(BitYMax)
	}
	if hw.EndstopRead(AxisZ, EndstopMin) {
		bits |= uint16(BitZMin)
	}
	if hw.EndstopRead(AxisZ, EndstopMax) {
		bits |= uint16(BitZMax)
	}
	if cfg.DualZ {
		if hw.EndstopRead(AxisZ2, EndstopMin) {
			bits |= uint16(BitZ2Min)
		}
		if hw.EndstopRead(AxisZ2, EndstopMax) {
			bits |= uint16(BitZ2Max)
		}
	}
	if cfg.DualX {
		if hw.EndstopRead(AxisX2, EndstopMin) {
			bits |= uint16(BitX2Min)
		}
		if hw.EndstopRead(AxisX2, EndstopMax) {
			bits |= uint16(BitX2Max)
		}
	}
	if hw.ProbeRead() {
		bits |= uint16(BitZProbe)
	}
	return bits
}

// Check samples this tick's pin state, debounces it against the previous
// sample, and reports whether the current block must terminate now.
// headX/headY come from the resolved kinematics strategy (raw axis
// direction for Cartesian, head-direction predicates for CoreXY/CoreXZ).
// homingOwner names which physical carriage axis a dual-X setup should
// check for the block's active extruder.
func (m *EndstopMonitor) Check(hw HardwareAdapter, b *Block, pos *PositionRegister, cfg *Config, headX, headY bool, homingOwner AxisIndex) bool {
	if !m.enabled {
		return false
	}

	m.sample.update(m.sampleBits(hw, cfg))

	terminate := false

	if headX {
		minBit, maxBit := BitXMin, BitXMax
		if cfg.DualX && homingOwner == AxisX2 {
			minBit, maxBit = BitX2Min, BitX2Max
		}
		// Dual-X carriages share one logical X slot in the block model
		// (only the active carriage moves at a time); only the endstop
		// pin differs, so position/direction are always read from AxisX.
		if m.checkAxis(AxisX, minBit, maxBit, b, pos, AxisX) {
			terminate = true
		}
	}

	if headY {
		if m.checkAxis(AxisY, BitYMin, BitYMax, b, pos, AxisY) {
			terminate = true
		}
	}

	if cfg.DualZ {
		if m.checkDualZ(b, pos) {
			terminate = true
		}
	} else if m.checkAxis(AxisZ, BitZMin, BitZMax, b, pos, AxisZ) {
		terminate = true
	}

	if m.sample.test(BitZProbe) {
		m.hitBits |= uint16(BitZProbe)
		m.trigSteps[AxisZ] = pos.Get(AxisZ)
		if m.probeRoutedAsHoming {
			terminate = true
		}
	}

	return terminate
}

// checkAxis implements the single-switch direction-gated trip rule:
// checkDirAxis is the axis whose commanded direction gates the trip
// (usually == axis, except CoreXY/CoreXZ head checks which read a
// different axis's motion predicate than the pin they sample).
func (m *EndstopMonitor) checkAxis(axis AxisIndex, minBit, maxBit EndstopBit, b *Block, pos *PositionRegister, checkDirAxis AxisIndex) bool {
	if b.Steps[checkDirAxis] == 0 {
		return false
	}

	dir := pos.Direction(checkDirAxis)
	var tripped bool
	var bit EndstopBit
	switch {
	case dir < 0 && m.sample.test(minBit):
		tripped, bit = true, minBit
	case dir > 0 && m.sample.test(maxBit):
		tripped, bit = true, maxBit
	}
	if !tripped {
		return false
	}

	m.trigSteps[axis] = pos.Get(axis)
	m.hitBits |= uint16(bit)
	return true
}

// checkDualZ implements the two-independent-Z-switch rule: outside homing,
// either switch terminates the block; while homing, a tripped motor locks
// (stops pulsing) and the block terminates only once both have tripped.
// The corrected bit (Z_MAX, not the source's Z_MIN) is used in the
// max-homing branch — see DESIGN.md.
func (m *EndstopMonitor) checkDualZ(b *Block, pos *PositionRegister) bool {
	if b.Steps[AxisZ] == 0 {
		return false
	}

	dir := pos.Direction(AxisZ)

	var zTripped, z2Tripped bool
	if dir < 0 {
		zTripped = m.sample.test(BitZMin)
		z2Tripped = m.sample.test(BitZ2Min)
	} else {
		zTripped = m.sample.test(BitZMax)
		z2Tripped = m.sample.test(BitZ2Max)
	}

	if !zTripped && !z2Tripped {
		return false
	}

	zPos := pos.Get(AxisZ)
	if zTripped {
		m.trigSteps[AxisZ] = zPos
		if dir < 0 {
			m.hitBits |= uint16(BitZMin)
		} else {
			m.hitBits |= uint16(BitZMax)
		}
	}
	if z2Tripped {
		m.trigSteps[AxisZ2] = zPos
		if dir < 0 {
			m.hitBits |= uint16(BitZ2Min)
		} else {
			m.hitBits |= uint16(BitZ2Max)
		}
	}

	if !m.performingHoming {
		return true
	}

	if zTripped {
		m.lockedZMotor = true
	}
	if z2Tripped {
		m.lockedZ2Motor = true
	}
	return m.lockedZMotor && m.lockedZ2Motor
}

// AxisLocked reports whether axis is currently locked out of pulsing by a
// dual-Z homing trip.
func (m *EndstopMonitor) AxisLocked(axis AxisIndex) bool {
	switch axis {
	case AxisZ:
		return m.lockedZMotor
	case AxisZ2:
		return m.lockedZ2Motor
	default:
		return false
	}
}
