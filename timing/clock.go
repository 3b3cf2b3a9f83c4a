package timing

// ClockSource reports the controller core clock rate. The second result is
// false when the rate is not known.
type ClockSource interface {
	CoreClock() (FreqInHz, bool)
}

// FixedClock is a clock source with a constant rate.
type FixedClock FreqInHz

// CoreClock returns the fixed rate. A zero rate counts as unknown.
func (c FixedClock) CoreClock() (FreqInHz, bool) {
	return FreqInHz(c), c != 0
}

// NoClock is a clock source that never knows the rate.
type NoClock struct{}

// CoreClock always reports an unknown rate.
func (NoClock) CoreClock() (FreqInHz, bool) {
	return 0, false
}

// ClockFunc adapts a function to ClockSource.
type ClockFunc func() (FreqInHz, bool)

// CoreClock calls fn.
func (fn ClockFunc) CoreClock() (FreqInHz, bool) {
	return fn()
}
