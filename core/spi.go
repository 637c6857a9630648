//go:build tinygo

// SPI transport for driver-chip register access (core/driverchip.go talks to
// TMC-style stepper drivers over this). Chip-select management mirrors the
// teacher's command-driven version; the command layer itself is gone, since
// nothing in this build issues SPI config/transfer as a decoded host command.
package core

// SPI device flags.
const (
	SF_HARDWARE       = 0x00 // Hardware SPI
	SF_SOFTWARE       = 0x01 // Software SPI (bit-banged)
	SF_CS_ACTIVE_HIGH = 0x02 // Chip select active high (default is active low)
	SF_HAVE_PIN       = 0x04 // Has chip select pin
)

// SPIDevice represents a configured SPI device with optional chip select.
type SPIDevice struct {
	Flags uint8
	Pin   GPIOPin

	BusHandle interface{}
	BusID     SPIBusID
	Mode      SPIMode
	Rate      uint32

	ShutdownMsg []byte
}

// NewSPIDevice configures a hardware or software SPI device. csPin is only
// used when havePin is true.
func NewSPIDevice(busID SPIBusID, mode SPIMode, rate uint32, software bool, havePin bool, csPin GPIOPin, csActiveHigh bool) (*SPIDevice, error) {
	dev := &SPIDevice{BusID: busID, Mode: mode, Rate: rate, Pin: csPin}
	if software {
		dev.Flags |= SF_SOFTWARE
	}
	if csActiveHigh {
		dev.Flags |= SF_CS_ACTIVE_HIGH
	}

	if havePin {
		dev.Flags |= SF_HAVE_PIN
		if err := MustGPIO().ConfigureOutput(csPin); err != nil {
			return nil, err
		}
		if err := MustGPIO().SetPin(csPin, !csActiveHigh); err != nil {
			return nil, err
		}
	}

	if !software {
		handle, err := MustSPI().ConfigureBus(SPIConfig{BusID: busID, Mode: mode, Rate: rate})
		if err != nil {
			return nil, err
		}
		dev.BusHandle = handle
	}

	return dev, nil
}

// Transfer performs a chip-select-gated bidirectional SPI transfer.
func (dev *SPIDevice) Transfer(txData, rxData []byte) error {
	if dev.Flags&SF_HAVE_PIN != 0 {
		csActive := dev.Flags&SF_CS_ACTIVE_HIGH != 0
		if err := MustGPIO().SetPin(dev.Pin, csActive); err != nil {
			return err
		}
	}

	var err error
	if dev.Flags&SF_SOFTWARE != 0 {
		if soft := GetSoftwareSPI(); soft != nil {
			err = soft.Transfer(dev.BusHandle, txData, rxData)
		}
	} else {
		err = MustSPI().Transfer(dev.BusHandle, txData, rxData)
	}

	if dev.Flags&SF_HAVE_PIN != 0 {
		csInactive := dev.Flags&SF_CS_ACTIVE_HIGH == 0
		if gpioErr := MustGPIO().SetPin(dev.Pin, csInactive); gpioErr != nil && err == nil {
			err = gpioErr
		}
	}

	return err
}

// Shutdown writes this device's configured safety message, ignoring the
// result — called from StepperCore.QuickStop for driver chips that need a
// defined register state on emergency stop.
func (dev *SPIDevice) Shutdown() {
	if len(dev.ShutdownMsg) == 0 {
		return
	}
	rx := make([]byte, len(dev.ShutdownMsg))
	_ = dev.Transfer(dev.ShutdownMsg, rx)
}
