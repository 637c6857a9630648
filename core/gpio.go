// GPIO digital-output scheduling.
//
// DigitalOut is used by StepExecutor for exactly one purpose: deferring the
// Z-motor enable pin by a short, fixed delay when a block's first action
// requires a late motor enable (spec 4.1 step 2). It keeps the teacher's
// queued-pin-change/PWM-cycle shape but is driven directly by Go calls
// instead of a decoded host command.
package core

// DigitalOut flags.
const (
	DF_ON         = 1 << 0 // Current pin state (1=high, 0=low)
	DF_TOGGLING   = 1 << 1 // PWM mode active
	DF_CHECK_END  = 1 << 2 // Monitor max_duration
	DF_DEFAULT_ON = 1 << 3 // Default state for shutdown/power-loss
)

// DigitalOut represents a configured GPIO output pin with optional deferred
// scheduling and PWM cycling.
type DigitalOut struct {
	Pin   GPIOPin
	Flags uint8

	Timer Timer

	OnDuration  uint32
	OffDuration uint32
	CycleTime   uint32
	EndTime     uint32

	MaxDuration uint32

	drv GPIODriver
}

// NewDigitalOut configures pin as an output on drv with the given initial
// and default (shutdown) values.
func NewDigitalOut(drv GPIODriver, pin GPIOPin, initial, defaultOn bool, maxDuration uint32) (*DigitalOut, error) {
	if err := drv.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	if err := drv.SetPin(pin, initial); err != nil {
		return nil, err
	}
	d := &DigitalOut{Pin: pin, MaxDuration: maxDuration, drv: drv}
	if initial {
		d.Flags |= DF_ON
	}
	if defaultOn {
		d.Flags |= DF_DEFAULT_ON
	}
	return d, nil
}

// ScheduleOn arranges for the pin to go high atClock and, if onTicks is
// nonzero and less than CycleTime, toggle back low after onTicks — this is
// the "defer 1ms" late-enable mechanism StepExecutor uses for the Z motor.
func (d *DigitalOut) ScheduleOn(atClock, onTicks uint32) {
	if d.CycleTime != 0 {
		d.OnDuration = onTicks
		d.OffDuration = d.CycleTime - onTicks
		if d.OnDuration > d.CycleTime {
			d.OnDuration, d.OffDuration = d.CycleTime, 0
		}
		if d.OnDuration > 0 && d.OffDuration > 0 {
			d.Flags |= DF_TOGGLING
		} else {
			d.Flags &^= DF_TOGGLING
			d.setOnFlag(d.OnDuration > 0)
		}
	} else {
		d.setOnFlag(onTicks > 0)
		d.Flags &^= DF_TOGGLING
	}

	if d.MaxDuration != 0 {
		newOn := d.Flags&DF_ON != 0
		defaultOn := d.Flags&DF_DEFAULT_ON != 0
		if newOn != defaultOn {
			d.EndTime = atClock + d.MaxDuration
			d.Flags |= DF_CHECK_END
		} else {
			d.Flags &^= DF_CHECK_END
		}
	}

	d.Timer.Next = nil
	d.Timer.WakeTime = atClock
	d.Timer.Handler = d.loadEvent
	ScheduleTimer(&d.Timer)
}

// Update sets the pin immediately and cancels any PWM toggling.
func (d *DigitalOut) Update(on bool) error {
	if err := d.drv.SetPin(d.Pin, on); err != nil {
		return err
	}
	d.setOnFlag(on)
	d.Flags &^= DF_TOGGLING
	return nil
}

func (d *DigitalOut) setOnFlag(on bool) {
	if on {
		d.Flags |= DF_ON
	} else {
		d.Flags &^= DF_ON
	}
}

func (d *DigitalOut) loadEvent(t *Timer) uint8 {
	if d.Flags&DF_TOGGLING != 0 {
		if err := d.drv.SetPin(d.Pin, true); err != nil {
			d.Flags &^= DF_TOGGLING
			return SF_DONE
		}
		t.WakeTime = GetTime() + d.OnDuration
		t.Handler = d.toggleEvent
		return SF_RESCHEDULE
	}

	on := d.Flags&DF_ON != 0
	if err := d.drv.SetPin(d.Pin, on); err != nil {
		return SF_DONE
	}
	if d.Flags&DF_CHECK_END != 0 {
		t.WakeTime = d.EndTime
		t.Handler = d.endEvent
		return SF_RESCHEDULE
	}
	return SF_DONE
}

func (d *DigitalOut) toggleEvent(t *Timer) uint8 {
	if d.Flags&DF_TOGGLING == 0 {
		return SF_DONE
	}

	newOn := d.Flags&DF_ON == 0
	if err := d.drv.SetPin(d.Pin, newOn); err != nil {
		d.Flags &^= DF_TOGGLING
		return SF_DONE
	}
	d.setOnFlag(newOn)

	next := d.OffDuration
	if newOn {
		next = d.OnDuration
	}

	now := GetTime()
	if d.Flags&DF_CHECK_END != 0 && now+next >= d.EndTime {
		t.WakeTime = d.EndTime
		t.Handler = d.loadEvent
		return SF_RESCHEDULE
	}
	t.WakeTime = now + next
	return SF_RESCHEDULE
}

func (d *DigitalOut) endEvent(t *Timer) uint8 {
	def := d.Flags&DF_DEFAULT_ON != 0
	if err := d.drv.SetPin(d.Pin, def); err != nil {
		return SF_DONE
	}
	d.setOnFlag(def)
	d.Flags &^= (DF_TOGGLING | DF_CHECK_END)
	return SF_DONE
}

// Shutdown returns the pin to its default state and cancels scheduling.
func (d *DigitalOut) Shutdown() {
	def := d.Flags&DF_DEFAULT_ON != 0
	_ = d.drv.SetPin(d.Pin, def)
	d.setOnFlag(def)
	d.Flags &^= (DF_TOGGLING | DF_CHECK_END)
	d.Timer.Next = nil
}
