package core

import "sync/atomic"

// DebugAssertions gates assertValidBlock and similar programmer-error
// checks that would be too costly to leave on in a release build.
var DebugAssertions = false

var isShutdown uint32

// TryShutdown stops peripheral activity and latches the firmware into a
// shutdown state. Safety mechanisms (ADC range checking, I2C faults) call
// this directly; it does not itself terminate the process.
func TryShutdown(reason string) {
	atomic.StoreUint32(&isShutdown, 1)
	shutdownReason = reason
}

// IsShutdown reports whether TryShutdown has latched.
func IsShutdown() bool {
	return atomic.LoadUint32(&isShutdown) != 0
}

// ShutdownReason returns the reason passed to the most recent TryShutdown
// call, or "" if none occurred.
func ShutdownReason() string {
	return shutdownReason
}

var shutdownReason string

func assertValidBlock(b *Block) {
	if !DebugAssertions {
		return
	}
	if b.StepEventCount == 0 {
		panic("block with zero step_event_count")
	}
	if b.AccelerateUntil > b.DecelerateAfter || b.DecelerateAfter > b.StepEventCount {
		panic("block phase boundaries out of order")
	}
	if b.InitialRate > b.NominalRate || b.FinalRate > b.NominalRate {
		panic("block rate exceeds nominal_rate")
	}
}
