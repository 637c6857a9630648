//go:build tinygo

// VL53L1X time-of-flight distance probe: the primary Z-probe path, a
// contact-free alternative to the threshold-based AnalogProbe/I2CProbe in
// endstop_analog.go/endstop_i2c.go. Electrically similar to an endstop —
// both end up read through HardwareAdapter.ProbeRead — but logically
// distinct: triggering is "distance below threshold", not "pin state".
package core

import "tinygo.org/x/drivers/vl53l1x"

// VL53L1XProbe wraps a TinyGo vl53l1x.Device as a threshold Z-probe.
type VL53L1XProbe struct {
	sensor vl53l1x.Device

	triggerDistanceMM uint32
	configured        bool
}

// NewVL53L1XProbe configures a VL53L1X sensor on the given I2C bus and
// returns a probe that triggers when the measured distance drops below
// triggerDistanceMM (the sensor is mounted a known height above the bed;
// triggering means the bed or a part is within range).
func NewVL53L1XProbe(bus I2CBusID, triggerDistanceMM uint32, use2v8Mode bool, timingBudgetUs uint32) (*VL53L1XProbe, error) {
	machineBus, err := MustI2C().GetMachineBus(bus)
	if err != nil {
		return nil, err
	}
	i2cBus, ok := machineBus.(interface {
		Tx(addr uint16, w, r []byte) error
	})
	if !ok {
		return nil, errNoMachineI2C
	}

	sensor := vl53l1x.New(i2cBus)
	sensor.Configure(use2v8Mode)
	sensor.SetMeasurementTimingBudget(timingBudgetUs)

	return &VL53L1XProbe{sensor: sensor, triggerDistanceMM: triggerDistanceMM, configured: true}, nil
}

var errNoMachineI2C = errorString("probe_vl53l1x: bus does not support machine.I2C")

type errorString string

func (e errorString) Error() string { return string(e) }

// Read performs a blocking distance measurement in millimeters.
func (p *VL53L1XProbe) Read() uint32 {
	return uint32(p.sensor.Read(true))
}

// Triggered reports whether the last blocking measurement is within the
// configured trigger distance. Too slow to call from the step ISR directly
// (an I2C round-trip); a HardwareAdapter.ProbeRead implementation should
// cache this at a lower rate, the same way AnalogProbe/I2CProbe latch into
// an atomic flag on their own oversampling timer.
func (p *VL53L1XProbe) Triggered() bool {
	if !p.configured {
		return false
	}
	return p.Read() <= p.triggerDistanceMM
}

// StopContinuous halts the sensor's ranging loop, e.g. on shutdown.
func (p *VL53L1XProbe) StopContinuous() {
	if p.configured {
		p.sensor.StopContinuous()
	}
}
