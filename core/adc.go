//go:build tinygo

// Analog input sampling with oversampling and range-check shutdown, used by
// the threshold-style Z-probe path in probe_vl53l1x.go. Oversampling and
// the range-check/shutdown rule are kept from the teacher almost unchanged;
// the host-report half (periodic analog_in_state messages) is gone, since
// nothing in this build consumes analog samples over a wire protocol.
package core

// AnalogIn states.
const (
	ADCStateIdle     = 0
	ADCStateReady    = 1
	ADCStateSampling = 2
)

// AnalogIn represents a configured, oversampled ADC input channel.
type AnalogIn struct {
	Channel ADCChannelID
	State   uint8

	Timer Timer

	RestTime      uint32
	SampleTime    uint32
	NextBeginTime uint32

	SampleCount   uint8
	CurrentSample uint8

	Value uint32

	MinValue        uint16
	MaxValue        uint16
	RangeCheckCount uint8
	InvalidCount    uint8

	// LastValue holds the most recent completed oversampled reading.
	LastValue uint16

	onSample func(value uint16)
}

// NewAnalogIn configures ch for analog input.
func NewAnalogIn(ch ADCChannelID) (*AnalogIn, error) {
	if err := MustADC().ConfigureChannel(ch); err != nil {
		return nil, err
	}
	return &AnalogIn{Channel: ch, State: ADCStateReady}, nil
}

// StartSampling begins a periodic oversampling cycle: sampleCount readings
// spaced sampleTicks apart are summed, range-checked against
// [minValue,maxValue], then reported to onSample every restTicks. onSample
// may be nil. A zero sampleCount disables sampling, matching the teacher's
// "count==0 means don't schedule" rule.
func (a *AnalogIn) StartSampling(atClock, sampleTicks uint32, sampleCount uint8, restTicks uint32, minValue, maxValue uint16, rangeCheckCount uint8, onSample func(uint16)) {
	a.SampleTime = sampleTicks
	a.SampleCount = sampleCount
	a.RestTime = restTicks
	a.MinValue = minValue
	a.MaxValue = maxValue
	a.RangeCheckCount = rangeCheckCount
	a.NextBeginTime = atClock
	a.onSample = onSample

	a.Value = 0
	a.CurrentSample = 0
	a.InvalidCount = 0

	if sampleCount == 0 {
		a.State = ADCStateReady
		a.Timer.Next = nil
		return
	}

	a.State = ADCStateSampling
	a.Timer.Next = nil
	a.Timer.WakeTime = atClock
	a.Timer.Handler = a.sampleEvent
	ScheduleTimer(&a.Timer)
}

// ReadOnce performs a single synchronous sample, bypassing the oversampling
// timer — used for one-shot probe threshold checks.
func (a *AnalogIn) ReadOnce() (uint16, error) {
	v, err := MustADC().ReadRaw(a.Channel)
	return uint16(v), err
}

func (a *AnalogIn) sampleEvent(t *Timer) uint8 {
	if a.State != ADCStateSampling {
		return SF_DONE
	}
	if a.SampleCount == 0 {
		a.State = ADCStateReady
		return SF_DONE
	}

	value, err := MustADC().ReadRaw(a.Channel)
	if err != nil {
		a.State = ADCStateReady
		return SF_DONE
	}

	a.Value += uint32(value)
	a.CurrentSample++

	if a.CurrentSample >= a.SampleCount {
		sum16 := uint16(a.Value)

		if sum16 < a.MinValue || sum16 > a.MaxValue {
			a.InvalidCount++
			if a.RangeCheckCount == 0 || a.InvalidCount >= a.RangeCheckCount {
				TryShutdown("ADC out of range")
				a.InvalidCount = 0
			}
		} else {
			a.InvalidCount = 0
		}

		a.NextBeginTime += a.RestTime
		a.LastValue = sum16
		if a.onSample != nil {
			a.onSample(sum16)
		}

		a.Value = 0
		a.CurrentSample = 0
		t.WakeTime = a.NextBeginTime
		return SF_RESCHEDULE
	}

	t.WakeTime = GetTime() + a.SampleTime
	return SF_RESCHEDULE
}

// Shutdown stops sampling and deschedules the timer.
func (a *AnalogIn) Shutdown() {
	a.State = ADCStateReady
	a.Timer.Next = nil
}
