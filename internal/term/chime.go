package term

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	chimeRate     = beep.SampleRate(44100)
	chimeDuration = 120 * time.Millisecond
	// chimeGap limits how often the chime retriggers.
	chimeGap = 80 * time.Millisecond
)

// Sounder plays a cue for a burst of body splashes.
type Sounder interface {
	Play(count int)
}

// Chime plays a short falling tone through the speaker when bodies splash.
type Chime struct {
	mu          sync.Mutex
	initialized bool
	last        time.Time
	volume      float64
}

// NewChime returns a chime at the given linear volume in [0, 1].
func NewChime(volume float64) *Chime {
	return &Chime{volume: volume}
}

// Init opens the speaker. Failure leaves the chime silent.
func (c *Chime) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	if err := speaker.Init(chimeRate, chimeRate.N(time.Second/10)); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Play queues the chime; more splashes give a lower, louder tone.
func (c *Chime) Play(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized || count <= 0 || time.Since(c.last) < chimeGap {
		return
	}
	c.last = time.Now()
	if s := ChimeStreamer(chimeRate, count, c.volume); s != nil {
		speaker.Play(s)
	}
}

// Close stops playback and releases the speaker.
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		speaker.Close()
		c.initialized = false
	}
}

// ChimeStreamer builds the tone for count splashes. It returns nil when the
// tone generator rejects the frequency.
func ChimeStreamer(rate beep.SampleRate, count int, volume float64) beep.Streamer {
	freq := 660 / math.Sqrt(float64(max(count, 1)))
	tone, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil
	}
	n := rate.N(chimeDuration)
	shaped := &decay{streamer: beep.Take(n, tone), total: n}
	gain := volume * math.Min(1, 0.4+0.2*float64(count))
	if gain <= 0 {
		return &effects.Volume{Streamer: shaped, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: shaped, Base: 2, Volume: math.Log2(gain)}
}

// decay fades a stream linearly to zero over total samples.
type decay struct {
	streamer beep.Streamer
	pos      int
	total    int
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1 - float64(d.pos)/float64(d.total)
		if vol < 0 {
			vol = 0
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		d.pos++
	}
	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }
