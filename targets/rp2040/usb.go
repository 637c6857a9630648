//go:build rp2040

package main

import "machine"

// InitUSB configures machine.Serial, which on RP2040 is USB CDC-ACM (not a
// UART) — TinyGo's runtime sets the USB descriptors.
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes buffered for reading.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data, returning the number of bytes written.
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
