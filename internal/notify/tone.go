package notify

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Tone synthesis parameters: a short three-note beep (800 → 600 → 800 Hz,
// one note per 100 ms) fading out to near silence by half a second.
const (
	toneSampleRate = 44100
	toneDuration   = 500 * time.Millisecond
	toneStartGain  = 0.3
	toneEndGain    = 0.01
)

// TonePlayer plays the synthesized alarm beep through the system audio
// device. The oto context is created lazily and only once; if the device is
// unavailable the player stays silent for the rest of the process lifetime.
type TonePlayer struct {
	once sync.Once
	ctx  *oto.Context
	err  error
	pcm  []byte
}

// NewTonePlayer synthesizes the beep up front. Audio hardware is not touched
// until the first Play call.
func NewTonePlayer() *TonePlayer {
	return &TonePlayer{pcm: synthesizeTone()}
}

// Play starts the beep without blocking. The returned error is informational;
// callers are expected to swallow it.
func (p *TonePlayer) Play() error {
	p.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   toneSampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			p.err = fmt.Errorf("notify.TonePlayer: audio context: %w", err)
			return
		}
		<-ready
		p.ctx = ctx
	})
	if p.err != nil {
		return p.err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(p.pcm))
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
	}()
	return nil
}

// PCM exposes the synthesized samples, mainly for tests.
func (p *TonePlayer) PCM() []byte {
	return p.pcm
}

// synthesizeTone renders the beep as mono signed 16-bit little-endian PCM.
func synthesizeTone() []byte {
	total := int(toneSampleRate * toneDuration.Seconds())
	buf := &bytes.Buffer{}
	buf.Grow(total * 2)

	for i := 0; i < total; i++ {
		t := float64(i) / toneSampleRate

		freq := 800.0
		switch {
		case t >= 0.1 && t < 0.2:
			freq = 600.0
		case t >= 0.2:
			freq = 800.0
		}

		// Exponential fade from the start gain to near silence.
		gain := toneStartGain * math.Pow(toneEndGain/toneStartGain, t/toneDuration.Seconds())

		sample := int16(gain * math.Sin(2*math.Pi*freq*t) * math.MaxInt16)
		binary.Write(buf, binary.LittleEndian, sample)
	}
	return buf.Bytes()
}
