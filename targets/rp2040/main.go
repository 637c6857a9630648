//go:build rp2040

package main

import (
	"stepexec/core"
	piostepper "stepexec/targets/pio"

	"machine"
	"time"
)

// Pin map for a GPIO-direct RP2040 controller board, Klipper-RP2040-style
// bus layout for the peripheral drivers (see spi.go/pwm.go/adc.go/i2c.go).
const (
	pinXDir, pinXEnable = machine.GPIO1, machine.GPIO8
	pinYStep, pinYDir, pinYEnable = machine.GPIO9, machine.GPIO10, machine.GPIO11
	pinZStep, pinZDir, pinZEnable = machine.GPIO12, machine.GPIO13, machine.GPIO14
	pinEStep, pinEDir             = machine.GPIO15, machine.GPIO21

	pinXMin  = machine.GPIO17
	pinYMin  = machine.GPIO18
	pinZMin  = machine.GPIO19
	pinProbe = machine.GPIO28

	pinXStepPIO = 0 // GPIO0, driven by the PIO state machine instead
)

var (
	adapter     *RP2040Adapter
	stepperCore *core.StepperCore
	queue       = core.NewBlockQueue(16)
	mbox        = &core.AdvanceMailbox{}
	endstops    *core.EndstopMonitor
)

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
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}
	InitUSB()
	InitClock()
	core.TimerInit()

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)
	core.SetADCDriver(NewRPAdcDriver())
	core.SetPWMDriver(NewRP2040PWMDriver())
	core.SetSPIDriver(NewRP2040SPIDriver())
	core.SetI2CDriver(NewRPI2CDriver())

	if GetMode().Standalone {
		RunStandaloneMode()
		return
	}

	cfg := &core.Config{
		NumAxes:          4,
		Kinematics:       core.KinematicsCartesian,
		NumExtruders:     1,
		MaxStepFrequency: 250000,
		StepsPerUnit:     [core.MaxAxes]float64{80, 80, 400, 415, 400, 80},
	}

	adapter = NewRP2040Adapter()
	adapter.SetConfig(cfg)

	// X gets the hardware-timed PIO backend; the rest use plain GPIO.
	if xPIO := piostepper.AllocateStepperPIO(); xPIO != nil {
		if err := xPIO.Init(pinXStepPIO, uint8(pinXDir), false, false); err == nil {
			adapter.BindAxisPIO(core.AxisX, xPIO)
		}
	}
	adapter.BindAxis(core.AxisY, pinYStep, pinYDir, pinYEnable)
	adapter.BindAxis(core.AxisZ, pinZStep, pinZDir, pinZEnable)
	adapter.BindExtruder(0, pinEStep, pinEDir)
	adapter.BindEndstop(core.AxisX, core.EndstopMin, pinXMin)
	adapter.BindEndstop(core.AxisY, core.EndstopMin, pinYMin)
	adapter.BindEndstop(core.AxisZ, core.EndstopMin, pinZMin)
	adapter.BindProbe(pinProbe)

	pos := core.NewPositionRegister()
	endstops = &core.EndstopMonitor{}

	exec := core.NewStepExecutor(adapter, queue, cfg, pos, endstops, mbox, core.Cartesian)
	adapter.SetExecutor(exec)
	advance := core.NewAdvanceExecutor(adapter, mbox, pos, cfg, func() uint8 { return 0 })

	if zEnable, err := core.NewDigitalOut(gpioDriver, core.GPIOPin(pinZEnable), false, false, 0); err == nil {
		exec.SetZEnableOutputs(zEnable, nil)
	}

	stepperCore = core.NewStepperCore(adapter, cfg, pos, endstops, exec, advance, nil)
	stepperCore.Wake()

	ledBlink(3)

	go usbReaderLoop()

	for {
		func() {
			defer func() { recover() }()
			UpdateSystemTime()
			core.ProcessTimers()
		}()
		time.Sleep(10 * time.Microsecond)
	}
}

// usbReaderLoop drains USB CDC bytes. With no wire protocol to dispatch
// them to in direct mode, this just keeps the host-side serial link from
// blocking on a full TX buffer.
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()
	for {
		if USBAvailable() > 0 {
			USBRead()
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
