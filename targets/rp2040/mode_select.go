//go:build rp2040 || rp2350

package main

// ModeConfig determines which mode to run
type ModeConfig struct {
	// Standalone: g-code comes in over USB and standalone.Manager plans and
	// steps it directly (see standalone_mode.go).
	//
	// Direct: core.StepExecutor drives blocks pushed into a BlockQueue by
	// an external planner; this board just runs the ISR.
	Standalone bool
}

// GetMode returns the current mode configuration.
func GetMode() ModeConfig {
	return ModeConfig{
		Standalone: false,
	}
}
