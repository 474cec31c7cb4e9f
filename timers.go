package vip8

// TimerFrequency is the rate, in Hz, at which the delay and sound timers count down
const TimerFrequency = 60

// Timers are the delay and sound timer registers
type Timers struct {
	// Delay timer register
	Dt byte
	// Sound timer register
	St byte
}

// Tick decrements every nonzero timer by one
func (t *Timers) Tick() {
	if t.Dt > 0 {
		t.Dt--
	}
	if t.St > 0 {
		t.St--
	}
}
