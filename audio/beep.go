// Package audio plays the CHIP-8 buzzer through the system speaker.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/guslan/vip8"
)

const (
	DefaultSampleRate beep.SampleRate = 44100
	DefaultFrequency                  = 440.0
	DefaultVolume                     = 0.2
)

var _ vip8.Buzzer = (*BeepBuzzer)(nil)

// BeepBuzzer plays a square wave while the sound timer runs
type BeepBuzzer struct {
	SampleRate beep.SampleRate
	Frequency  float64
	Volume     float64

	once    sync.Once
	bootErr error
	ctrl    *beep.Ctrl
}

func NewBeepBuzzer() *BeepBuzzer {
	return &BeepBuzzer{
		SampleRate: DefaultSampleRate,
		Frequency:  DefaultFrequency,
		Volume:     DefaultVolume,
	}
}

// Boot implements vip8.Buzzer.
// It opens the speaker and starts a paused tone.
func (b *BeepBuzzer) Boot() error {
	b.once.Do(func() {
		if err := speaker.Init(b.SampleRate, b.SampleRate.N(time.Second/20)); err != nil {
			b.bootErr = fmt.Errorf("initializing speaker: %w", err)
			return
		}

		b.ctrl = &beep.Ctrl{
			Streamer: SquareWave(b.SampleRate, b.Frequency, b.Volume),
			Paused:   true,
		}
		speaker.Play(b.ctrl)
	})

	return b.bootErr
}

// Play implements vip8.Buzzer.
func (b *BeepBuzzer) Play() {
	b.setPaused(false)
}

// Stop implements vip8.Buzzer.
func (b *BeepBuzzer) Stop() {
	b.setPaused(true)
}

func (b *BeepBuzzer) setPaused(paused bool) {
	if b.ctrl == nil {
		return
	}

	speaker.Lock()
	b.ctrl.Paused = paused
	speaker.Unlock()
}

// SquareWave streams an endless square wave of the given frequency and volume
func SquareWave(sr beep.SampleRate, freq, volume float64) beep.Streamer {
	period := float64(sr) / freq
	var t float64

	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for i := range samples {
			v := volume
			if t >= period/2 {
				v = -volume
			}
			samples[i][0] = v
			samples[i][1] = v

			t++
			if t >= period {
				t -= period
			}
		}

		return len(samples), true
	})
}
