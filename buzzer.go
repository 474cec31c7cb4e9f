package vip8

// Buzzer sounds while the sound timer is running.
// The CPU calls Play on every frame the sound timer is nonzero and Stop otherwise,
// so implementations must tolerate repeated calls.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

// DummyBuzzer records the buzzer state without making any sound
type DummyBuzzer struct {
	IsPlaying bool
	// Beeps counts the times the buzzer went from silent to playing
	Beeps int
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	if !b.IsPlaying {
		b.Beeps++
	}
	b.IsPlaying = true
}

// Stop implements Buzzer
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
}
