//go:build rp2040 || rp2350

package pio

// PulseBackendInfo describes a pulse-generation backend's timing
// characteristics, used by target main packages to pick between the PIO
// and plain-GPIO backends per axis.
type PulseBackendInfo struct {
	Name          string
	MaxStepRate   uint32 // Maximum steps/second
	MinPulseNs    uint32 // Minimum step pulse width (ns)
	TypicalJitter uint32 // Typical timing jitter (ns)
	CPUOverhead   uint8  // CPU overhead percentage (0-100) at max rate
}

var (
	// PIO allocation tracking.
	// RP2040/RP2350 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each.
	pioAllocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)
)

// AllocateStepperPIO claims the next free PIO state machine and returns a
// backend bound to it, or nil if all 8 are already in use.
func AllocateStepperPIO() *PIOStepperBackend {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil
	}
	return NewPIOStepperBackend(pioNum, smNum)
}

// allocatePIO allocates a PIO state machine, round-robin across both PIO
// blocks. Returns (pioNum, smNum, ok).
func allocatePIO() (uint8, uint8, bool) {
	for i := 0; i < 8; i++ { // 2 PIO x 4 SM = 8 total
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}
	return 0, 0, false
}

// GetPIOAllocationStatus returns PIO allocation status for debugging.
func GetPIOAllocationStatus() [2][4]bool {
	return pioAllocations
}

// ResetPIOAllocations resets all PIO allocations (for testing).
func ResetPIOAllocations() {
	pioAllocations = [2][4]bool{}
	nextPIONum = 0
	nextSMNum = 0
}
