//go:build rp2350

package main

import (
	"stepexec/core"

	"machine"
	"time"
)

// Pin map for a GPIO-direct RP2350 controller board. Board-specific, so it
// lives in main rather than in the core package.
const (
	pinXStep, pinXDir, pinXEnable = machine.GPIO2, machine.GPIO3, machine.GPIO4
	pinYStep, pinYDir, pinYEnable = machine.GPIO5, machine.GPIO6, machine.GPIO7
	pinZStep, pinZDir, pinZEnable = machine.GPIO8, machine.GPIO9, machine.GPIO10
	pinEStep, pinEDir             = machine.GPIO11, machine.GPIO12

	pinXMin  = machine.GPIO13
	pinYMin  = machine.GPIO14
	pinZMin  = machine.GPIO15
	pinProbe = machine.GPIO16
)

var (
	adapter  *RP2350Adapter
	stepperCore    *core.StepperCore
	queue    = core.NewBlockQueue(16)
	mbox     = &core.AdvanceMailbox{}
	endstops *core.EndstopMonitor
)

// ledBlink blinks the LED a specific number of times for boot diagnostics.
func ledBlink(count int) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for i := 0; i < count; i++ {
		led.High()
		time.Sleep(150 * time.Millisecond)
		led.Low()
		time.Sleep(150 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)
}

func main() {
	InitUSB()
	InitDebugUART()

	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitClock()
	core.TimerInit()

	cfg := &core.Config{
		NumAxes:         4,
		Kinematics:      core.KinematicsCartesian,
		NumExtruders:    1,
		MaxStepFrequency: 250000,
		StepsPerUnit:    [core.MaxAxes]float64{80, 80, 400, 415, 400, 80},
	}

	adapter = NewRP2350Adapter()
	adapter.SetConfig(cfg)
	adapter.BindAxis(core.AxisX, pinXStep, pinXDir, pinXEnable)
	adapter.BindAxis(core.AxisY, pinYStep, pinYDir, pinYEnable)
	adapter.BindAxis(core.AxisZ, pinZStep, pinZDir, pinZEnable)
	adapter.BindExtruder(0, pinEStep, pinEDir)
	adapter.BindEndstop(core.AxisX, core.EndstopMin, pinXMin)
	adapter.BindEndstop(core.AxisY, core.EndstopMin, pinYMin)
	adapter.BindEndstop(core.AxisZ, core.EndstopMin, pinZMin)
	adapter.BindProbe(pinProbe)

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)

	pos := core.NewPositionRegister()
	endstops = &core.EndstopMonitor{}

	exec := core.NewStepExecutor(adapter, queue, cfg, pos, endstops, mbox, core.Cartesian)
	adapter.SetExecutor(exec)
	advance := core.NewAdvanceExecutor(adapter, mbox, pos, cfg, func() uint8 { return 0 })

	if zEnable, err := core.NewDigitalOut(gpioDriver, core.GPIOPin(pinZEnable), false, false, 0); err == nil {
		exec.SetZEnableOutputs(zEnable, nil)
	}

	stepperCore = core.NewStepperCore(adapter, cfg, pos, endstops, exec, advance, func(reason core.EndstopHitReason) {
		DebugPrintln("endstop hit: axis=" + itoa(int(reason.Axis)))
	})
	stepperCore.Wake()

	ledBlink(3)

	go usbReaderLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					DebugPrintln("panic recovered in main loop")
				}
			}()

			UpdateSystemTime()
			core.ProcessTimers()
			adapter.IdleHook()
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// usbReaderLoop drains the USB CDC link for diagnostic commands. The
// wire-protocol command dispatcher this used to feed is gone; all motion
// now comes from QueueDemoBlock below until a real host link is wired in.
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			_, err := USBRead()
			if err != nil {
				time.Sleep(1 * time.Millisecond)
				continue
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// itoa converts an int to a string without importing strconv.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	negative := i < 0
	if negative {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if negative {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
