// Command stepexec-sim runs the core motion executor against a simulated
// hardware adapter, with no real MCU or GPIO involved. It exists for
// developing and demoing the ISR-level packages on a workstation: it drives
// a StepperCore through a canned trapezoidal move, and reports any endstop
// trip diagnostics over a serial link the way the firmware would, so a
// terminal on the far end of a real or virtual serial pair sees the same
// "x_min triggered at 2.0000" style lines the target boards would emit.
package main

import (
	"flag"
	"fmt"
	"os"

	hostserial "stepexec/host/serial"

	"stepexec/core"
)

var (
	device  = flag.String("device", "", "Serial device to mirror diagnostics to (empty: stdout only)")
	baud    = flag.Int("baud", 250000, "Baud rate for -device")
	verbose = flag.Bool("verbose", false, "Log every simulated step pulse")
)

func main() {
	flag.Parse()

	fmt.Println("stepexec simulator - software HardwareAdapter, no MCU attached")

	var sink *hostserial.DiagnosticSink
	if *device != "" {
		cfg := hostserial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := hostserial.Open(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open %s (%v), diagnostics go to stdout only\n", *device, err)
		} else {
			defer port.Close()
			sink = hostserial.NewDiagnosticSink(port)
		}
	}

	sim := newSimulatedAdapter(*verbose)

	cfg := &core.Config{
		NumAxes:             4,
		Kinematics:          core.KinematicsCartesian,
		MaxStepFrequency:    250_000,
		DoubleStepFrequency: 100_000,
		StepsPerUnit:        [core.MaxAxes]float64{80, 80, 400, 415, 400, 80},
	}

	pos := core.NewPositionRegister()
	endstops := &core.EndstopMonitor{}
	endstops.Enable(true)
	sim.endstops[core.AxisX][core.EndstopMin] = true // pretend X is already home

	queue := core.NewBlockQueue(4)
	mbox := &core.AdvanceMailbox{}
	exec := core.NewStepExecutor(sim, queue, cfg, pos, endstops, mbox, core.Cartesian)
	advance := core.NewAdvanceExecutor(sim, mbox, pos, cfg, func() uint8 { return 0 })

	report := func(reason core.EndstopHitReason) {
		fmt.Fprintf(os.Stderr, "quick-stop: axis %d tripped at step %d\n", reason.Axis, reason.TrigSteps)
	}
	sc := core.NewStepperCore(sim, cfg, pos, endstops, exec, advance, report)
	sc.Wake()

	// A short accel/cruise/decel move on X, grounded on the same block
	// shape stepexecutor_test.go exercises.
	queue.Push(core.Block{
		StepEventCount:   400,
		Steps:            [core.MaxAxes]uint32{400, 0, 0, 0, 0, 0},
		InitialRate:      1000,
		NominalRate:      8000,
		FinalRate:        1000,
		AccelerateUntil:  100,
		DecelerateAfter:  300,
		AccelerationRate: 1 << 24,
	})

	for exec.Busy() || queue.BlocksQueued() {
		exec.Tick()
	}

	fmt.Printf("move complete: position x=%.4fmm\n", sc.GetPositionMM(core.AxisX))

	if msgs := sc.CheckHitEndstops(); msgs != nil {
		for _, m := range msgs {
			fmt.Println(m)
			if sink != nil {
				sink.Notify(m)
			}
		}
	}
}
