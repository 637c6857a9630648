//go:build tinygo

// Hardware PWM output, used by driverchip.go to emulate a digital
// potentiometer for stepper driver current control. The command-dispatch
// layer the teacher wrapped this in is gone; callers now configure and
// update a CurrentOutput directly.
package core

// CurrentOutput flags.
const (
	PWM_CHECK_END = 1 << 0 // Monitor max_duration
)

// CurrentOutput represents a configured hardware PWM output used as a
// duty-cycle current reference.
type CurrentOutput struct {
	Pin   PWMPin
	Flags uint8

	Timer Timer

	CycleTicks uint32
	Value      PWMValue

	DefaultValue PWMValue
	MaxDuration  uint32
	EndTime      uint32
}

// NewCurrentOutput configures pin for hardware PWM and sets its initial
// duty cycle.
func NewCurrentOutput(pin PWMPin, cycleTicks uint32, initial, defaultValue PWMValue, maxDuration uint32) (*CurrentOutput, error) {
	actualCycleTicks, err := MustPWM().ConfigureHardwarePWM(pin, cycleTicks)
	if err != nil {
		return nil, err
	}
	out := &CurrentOutput{
		Pin:          pin,
		CycleTicks:   actualCycleTicks,
		Value:        initial,
		DefaultValue: defaultValue,
		MaxDuration:  maxDuration,
	}
	if err := MustPWM().SetDutyCycle(pin, initial); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleValue arranges for the duty cycle to change at atClock — used to
// ramp driver current down after a move completes.
func (c *CurrentOutput) ScheduleValue(atClock uint32, value PWMValue) {
	c.Value = value
	if c.MaxDuration != 0 {
		if value != c.DefaultValue {
			c.EndTime = atClock + c.MaxDuration
			c.Flags |= PWM_CHECK_END
		} else {
			c.Flags &^= PWM_CHECK_END
		}
	}
	c.Timer.Next = nil
	c.Timer.WakeTime = atClock
	c.Timer.Handler = c.loadEvent
	ScheduleTimer(&c.Timer)
}

// SetValue applies value immediately, bypassing the timer.
func (c *CurrentOutput) SetValue(value PWMValue) error {
	c.Value = value
	return MustPWM().SetDutyCycle(c.Pin, value)
}

func (c *CurrentOutput) loadEvent(t *Timer) uint8 {
	if err := MustPWM().SetDutyCycle(c.Pin, c.Value); err != nil {
		return SF_DONE
	}
	if c.Flags&PWM_CHECK_END != 0 {
		t.WakeTime = c.EndTime
		t.Handler = c.endEvent
		return SF_RESCHEDULE
	}
	return SF_DONE
}

func (c *CurrentOutput) endEvent(t *Timer) uint8 {
	c.Value = c.DefaultValue
	if err := MustPWM().SetDutyCycle(c.Pin, c.Value); err != nil {
		return SF_DONE
	}
	c.Flags &^= PWM_CHECK_END
	return SF_DONE
}

// Shutdown returns the output to its default value and cancels scheduling.
func (c *CurrentOutput) Shutdown() {
	c.Value = c.DefaultValue
	_ = MustPWM().SetDutyCycle(c.Pin, c.Value)
	c.Flags &^= PWM_CHECK_END
	c.Timer.Next = nil
}
