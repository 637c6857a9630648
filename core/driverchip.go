//go:build tinygo

// TMC5240-style driver-chip adapter. The command-dispatch layer the teacher
// wrapped SPI/PWM transport in is gone; this just reads and writes driver
// registers directly and drives run/hold current with a CurrentOutput.
package core

import "fmt"

// DriverChipConfig holds per-chip configuration for a DriverChip.
type DriverChipConfig struct {
	RunCurrent    float64 // RMS run current, amps
	HoldCurrent   float64 // RMS hold current, amps; 0 defaults to RunCurrent
	SenseResistor float64 // ohms; 0 defaults to 0.11
	Microsteps    uint32  // 1..256, power of two
	Interpolate   bool
	StealthChop   bool

	// CurrentPin, when non-zero, drives current via PWM duty cycle (a
	// digital-potentiometer-style board) instead of GLOBAL_SCALER/IRUN.
	CurrentPin      PWMPin
	CurrentCycleTicks uint32
}

// DriverChip drives a single TMC5240 over SPI, with optional PWM-based
// current control for boards that use a digital potentiometer instead of
// the chip's internal current DACs.
type DriverChip struct {
	spi *SPIDevice
	cfg DriverChipConfig

	current *CurrentOutput

	gconf    uint32
	chopconf uint32
	iholdRun uint32
	pwmconf  uint32
}

// NewDriverChip configures SPI access to a TMC5240 at busID/csPin and
// computes its register set from cfg. If cfg.CurrentPin is set, a
// CurrentOutput is also configured for PWM-driven current control.
func NewDriverChip(busID SPIBusID, csPin GPIOPin, csActiveHigh bool, cfg DriverChipConfig) (*DriverChip, error) {
	if cfg.RunCurrent <= 0 {
		return nil, fmt.Errorf("driverchip: run current must be > 0")
	}
	if cfg.HoldCurrent <= 0 {
		cfg.HoldCurrent = cfg.RunCurrent
	}
	if cfg.SenseResistor <= 0 {
		cfg.SenseResistor = 0.11
	}
	if cfg.Microsteps == 0 {
		cfg.Microsteps = 16
	}

	spi, err := NewSPIDevice(busID, SPIMode(3), 4000000, false, true, csPin, csActiveHigh)
	if err != nil {
		return nil, err
	}

	d := &DriverChip{spi: spi, cfg: cfg}
	d.calculateRegisters()

	if cfg.CurrentPin != 0 {
		initial := d.dutyForCurrent(cfg.RunCurrent)
		deflt := d.dutyForCurrent(cfg.HoldCurrent)
		out, err := NewCurrentOutput(cfg.CurrentPin, cfg.CurrentCycleTicks, initial, deflt, 0)
		if err != nil {
			return nil, err
		}
		d.current = out
	}

	return d, nil
}

// calculateRegisters derives GCONF/CHOPCONF/IHOLD_IRUN/PWMCONF from cfg, the
// way the teacher's TMC5160 current-control math does for its own chip.
func (d *DriverChip) calculateRegisters() {
	d.gconf = 0
	if d.cfg.StealthChop {
		d.gconf |= TMC5240_GCONF_EN_PWM_MODE
	}

	mres := microstepsToMres(d.cfg.Microsteps)
	toff, hstrt, hend, tbl := uint32(3), uint32(4), uint32(1), uint32(2)
	d.chopconf = toff | hstrt<<4 | hend<<7 | tbl<<15 | mres<<24
	if d.cfg.Interpolate {
		d.chopconf |= 1 << 28
	}

	irun := currentToCS(d.cfg.RunCurrent, d.cfg.SenseResistor)
	ihold := currentToCS(d.cfg.HoldCurrent, d.cfg.SenseResistor)
	d.iholdRun = ihold | irun<<8 | uint32(TMC5240_IHOLDDELAY_DEFAULT)<<16

	d.pwmconf = TMC5240_PWMCONF_DEFAULT
}

// currentToCS converts an RMS current in amps to a 5-bit current-scale
// value (0-31) for the given sense resistor, per the TMC5240 current
// formula (Vfs / (sqrt(2) * Rsense * (CS+1)/32)).
func currentToCS(current, senseResistor float64) uint32 {
	const vfs = 0.325
	cs := int((current*senseResistor*32*1.41421356)/vfs) - 1
	if cs < 0 {
		cs = 0
	}
	if cs > 31 {
		cs = 31
	}
	return uint32(cs)
}

// dutyForCurrent maps an RMS current to a PWM duty value for boards using a
// digital-potentiometer current reference instead of the chip's own DAC.
func (d *DriverChip) dutyForCurrent(current float64) PWMValue {
	maxValue := MustPWM().GetMaxValue()
	frac := current / d.cfg.RunCurrent
	if frac > 1 {
		frac = 1
	}
	if frac < 0 {
		frac = 0
	}
	return PWMValue(frac * float64(maxValue))
}

func microstepsToMres(microsteps uint32) uint32 {
	mres := uint32(8)
	for m := microsteps; m > 1 && mres > 0; m >>= 1 {
		mres--
	}
	return mres
}

// WriteRegister writes a 32-bit value to a TMC5240 register over SPI.
func (d *DriverChip) WriteRegister(addr uint8, value uint32) error {
	tx := []byte{addr | TMC5240_WRITE_BIT, byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
	return d.spi.Transfer(tx, nil)
}

// ReadRegister reads a 32-bit value from a TMC5240 register over SPI. Per
// the TMC5240 protocol, the data returned corresponds to the *previous*
// read request, so this issues the request twice.
func (d *DriverChip) ReadRegister(addr uint8) (uint32, error) {
	tx := []byte{addr | TMC5240_READ_BIT, 0, 0, 0, 0}
	rx := make([]byte, 5)
	if err := d.spi.Transfer(tx, rx); err != nil {
		return 0, err
	}
	if err := d.spi.Transfer(tx, rx); err != nil {
		return 0, err
	}
	return uint32(rx[1])<<24 | uint32(rx[2])<<16 | uint32(rx[3])<<8 | uint32(rx[4]), nil
}

// Configure writes the full register set computed from the chip's
// configuration, bringing a freshly powered-up TMC5240 into run state.
func (d *DriverChip) Configure() error {
	if err := d.WriteRegister(TMC5240_GCONF, d.gconf); err != nil {
		return err
	}
	if err := d.WriteRegister(TMC5240_CHOPCONF, d.chopconf); err != nil {
		return err
	}
	if err := d.WriteRegister(TMC5240_PWMCONF, d.pwmconf); err != nil {
		return err
	}
	if d.current == nil {
		if err := d.WriteRegister(TMC5240_IHOLD_IRUN, d.iholdRun); err != nil {
			return err
		}
	}
	return nil
}

// SetCurrent updates the run current immediately, via the chip's own
// IHOLD_IRUN register or, if configured, the PWM current-reference output.
func (d *DriverChip) SetCurrent(amps float64) error {
	if d.current != nil {
		return d.current.SetValue(d.dutyForCurrent(amps))
	}
	irun := currentToCS(amps, d.cfg.SenseResistor)
	d.iholdRun = d.iholdRun&^uint32(0x1F00) | irun<<8
	return d.WriteRegister(TMC5240_IHOLD_IRUN, d.iholdRun)
}

// ReadStatus reads the DRV_STATUS register, reporting stall/short/overtemp
// flags and the actual current scaling applied.
func (d *DriverChip) ReadStatus() (uint32, error) {
	return d.ReadRegister(TMC5240_DRV_STATUS)
}

// Shutdown drops the driver back to its hold current.
func (d *DriverChip) Shutdown() error {
	if d.current != nil {
		d.current.Shutdown()
		return nil
	}
	return d.SetCurrent(d.cfg.HoldCurrent)
}
