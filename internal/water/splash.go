package water

import "math"

// MaxPendingSplashes bounds the impulses queued between two steps. Further
// splashes in the same frame replace the oldest pending one.
const MaxPendingSplashes = 8

// splashSentinel parks a consumed impulse far outside any grid.
const splashSentinel = 1e9

// SplashImpulse is a one-shot disturbance in plane-local coordinates.
type SplashImpulse struct {
	X, Y     float64
	Radius   float64
	Strength float64
}

func (s SplashImpulse) consumed() bool {
	return s.Strength == 0 || s.X == splashSentinel
}

var consumedSplash = SplashImpulse{X: splashSentinel, Y: splashSentinel}

// SplashInjector queues impulses until the next step consumes them.
type SplashInjector struct {
	pending [MaxPendingSplashes]SplashImpulse
	count   int
	next    int
}

// NewSplashInjector returns an injector with nothing pending.
func NewSplashInjector() *SplashInjector {
	s := &SplashInjector{}
	s.Reset()
	return s
}

// Queue records an impulse at plane-local (x, y). It reports false and does
// nothing when the radius or strength is unusable.
func (s *SplashInjector) Queue(x, y, radius, strength float64) bool {
	if !finite(x) || !finite(y) || !finite(strength) || strength == 0 || !(radius > 0) || !finite(radius) {
		return false
	}
	s.pending[s.next] = SplashImpulse{X: x, Y: y, Radius: radius, Strength: strength}
	s.next = (s.next + 1) % MaxPendingSplashes
	if s.count < MaxPendingSplashes {
		s.count++
	}
	return true
}

// Pending returns the number of impulses waiting for the next step.
func (s *SplashInjector) Pending() int { return s.count }

// consume appends the pending impulses to dst and resets every slot to the
// sentinel, so an impulse is applied by exactly one step.
func (s *SplashInjector) consume(dst []SplashImpulse) []SplashImpulse {
	dst = dst[:0]
	for i := range s.pending {
		if !s.pending[i].consumed() {
			dst = append(dst, s.pending[i])
		}
		s.pending[i] = consumedSplash
	}
	s.count = 0
	s.next = 0
	return dst
}

// Reset drops any pending impulse.
func (s *SplashInjector) Reset() {
	for i := range s.pending {
		s.pending[i] = consumedSplash
	}
	s.count = 0
	s.next = 0
}

// splashStamp is the precomputed velocity impulse of one splash over a grid
// rectangle. Its weights sum to zero.
type splashStamp struct {
	x0, y0 int
	w, h   int
	weight []float32
}

func (st *splashStamp) at(x, y int) float64 {
	dx := x - st.x0
	dy := y - st.y0
	if dx < 0 || dy < 0 || dx >= st.w || dy >= st.h {
		return 0
	}
	return float64(st.weight[dy*st.w+dx])
}

// buildStamp rasterises s over the node coordinates xs/ys. Sub-cell splashes
// are widened so the nearest node lands in the positive lobe and its
// neighbours in the negative ring, then the negative lobe is rescaled to
// cancel the positive one exactly.
func buildStamp(st *splashStamp, s SplashImpulse, xs, ys []float64, cellX, cellY, sigma, gain float64) bool {
	if !(sigma > 0) {
		sigma = 0.4
	}
	width := math.Max(sigma*s.Radius, 1.2*math.Max(cellX, cellY))
	radius := math.Max(s.Radius, 2*width)
	x0 := lowerNode(xs, s.X-radius)
	x1 := upperNode(xs, s.X+radius)
	y0 := lowerNode(ys, s.Y-radius)
	y1 := upperNode(ys, s.Y+radius)
	if x0 > x1 || y0 > y1 {
		return false
	}
	st.x0, st.y0 = x0, y0
	st.w = x1 - x0 + 1
	st.h = y1 - y0 + 1
	n := st.w * st.h
	if cap(st.weight) < n {
		st.weight = make([]float32, n)
	}
	st.weight = st.weight[:n]

	pos, neg := 0.0, 0.0
	for j := 0; j < st.h; j++ {
		dy := ys[y0+j] - s.Y
		for i := 0; i < st.w; i++ {
			dx := xs[x0+i] - s.X
			r := math.Sqrt(dx*dx + dy*dy)
			w := 0.0
			if r <= radius {
				w = mexicanHat(r / width)
			}
			if w > 0 {
				pos += w
			} else {
				neg -= w
			}
			st.weight[j*st.w+i] = float32(w)
		}
	}
	if pos == 0 || neg == 0 {
		return false
	}
	negScale := pos / neg
	amp := s.Strength * gain
	for idx, w := range st.weight {
		v := float64(w)
		if v < 0 {
			v *= negScale
		}
		st.weight[idx] = float32(v * amp)
	}
	return true
}

// lowerNode returns the first index whose coordinate is >= v.
func lowerNode(coords []float64, v float64) int {
	for i, c := range coords {
		if c >= v {
			return i
		}
	}
	return len(coords)
}

// upperNode returns the last index whose coordinate is <= v.
func upperNode(coords []float64, v float64) int {
	for i := len(coords) - 1; i >= 0; i-- {
		if coords[i] <= v {
			return i
		}
	}
	return -1
}
