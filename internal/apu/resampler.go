package apu

import "math"

// pulseTable and tndTable are the NES APU's non-linear DAC mixer curves
// (spec.md §4.4): output = 95.52/(8128/n + 100) for the combined pulse
// index, and 163.67/(24329/n + 100) for the combined triangle/noise/DMC
// index. Grounded on cddNES's apu.c mixer tables.
var pulseTable [31]float32
var tndTable [203]float32

func init() {
	for n := 1; n < len(pulseTable); n++ {
		pulseTable[n] = float32(95.52 / (8128.0/float64(n) + 100.0))
	}
	for n := 1; n < len(tndTable); n++ {
		tndTable[n] = float32(163.67 / (24329.0/float64(n) + 100.0))
	}
}

// mixSample applies spec.md §4.4's unusual stereo split (L carries
// pulse0+triangle+dmc, R carries pulse1+noise) on top of the standard
// non-linear DAC curves, rather than the mono sum real hardware
// produces; this is an approximation of that split documented in
// DESIGN.md, since the non-linear tables are keyed by combined channel
// indices rather than per-channel amplitudes.
func mixSample(in mixInputs) (left, right float32) {
	left = pulseTable[in.pulse1] + tndTable[3*uint16(in.triangle)+uint16(in.dmc)]
	right = pulseTable[in.pulse2] + tndTable[2*uint16(in.noise)]
	return left, right
}

const (
	cpuClockHz   = 1789773.0
	sincPhases   = 32
	sincTaps     = 15
	fracBits     = 20
	fracOne      = 1 << fracBits
)

// sincKernel holds the precomputed windowed-sinc taps, one set of
// sincTaps coefficients per fractional phase. Each output sample
// convolves one phase with the last sincTaps per-cycle input samples, so
// the kernel is a fractional-delay interpolator at the 1.789773 MHz CPU
// clock: its cutoff is a fraction of the CPU-clock Nyquist, not of the
// host rate's, and content between the host Nyquist and that cutoff is
// not removed before decimation. Input deltas are not scattered into a
// buffer and integrated. Grounded on cddNES's blip_buf-derived
// resampler design.
var sincKernel [sincPhases][sincTaps]float32

func init() {
	const cutoff = 0.45 // fraction of input Nyquist
	center := (sincTaps - 1) / 2.0
	for phase := 0; phase < sincPhases; phase++ {
		frac := float64(phase) / float64(sincPhases)
		var sum float64
		var taps [sincTaps]float64
		for i := 0; i < sincTaps; i++ {
			x := float64(i) - center - frac
			taps[i] = sincWindowed(x, cutoff)
			sum += taps[i]
		}
		for i := 0; i < sincTaps; i++ {
			sincKernel[phase][i] = float32(taps[i] / sum)
		}
	}
}

func sincWindowed(x, cutoff float64) float64 {
	var s float64
	if x == 0 {
		s = 1
	} else {
		px := math.Pi * x * cutoff
		s = math.Sin(px) / px
	}
	// Blackman window.
	n := x + (sincTaps-1)/2.0
	w := 0.42 - 0.5*math.Cos(2*math.Pi*n/(sincTaps-1)) + 0.08*math.Cos(4*math.Pi*n/(sincTaps-1))
	return s * w
}

// Resampler converts the APU's fixed-rate per-cycle sample stream to
// the host's requested output rate via a band-limited sinc filter, and
// applies a 1-pole DC-blocking high-pass plus stereo crossfeed before
// handing batches to the host callback (spec.md §4.4, §6).
type Resampler struct {
	ratio  uint64 // fixed-point input-cycles-per-output-sample, Q(fracBits)
	accum  uint64

	stereo bool
	cb     func(samples []int16)

	history [sincTaps]mixInputs
	histPos int

	dcPrevInL, dcPrevOutL float32
	dcPrevInR, dcPrevOutR float32

	batch []int16
}

// NewResampler builds a resampler targeting sampleRate Hz (mono or
// stereo interleaved output), invoking cb whenever a batch of samples
// has accumulated.
func NewResampler(sampleRate int, stereo bool, cb func(samples []int16)) *Resampler {
	r := &Resampler{
		ratio:  uint64(cpuClockHz / float64(sampleRate) * fracOne),
		stereo: stereo,
		cb:     cb,
		batch:  make([]int16, 0, 512),
	}
	return r
}

// AddSample feeds one CPU-cycle's worth of channel outputs into the
// resampler. Every fracOne-scaled accumulation step emits zero or one
// output samples depending on how many input cycles the current output
// period spans.
func (r *Resampler) AddSample(in mixInputs) {
	r.history[r.histPos%sincTaps] = in
	r.histPos++

	r.accum += fracOne
	for r.accum >= r.ratio {
		r.accum -= r.ratio
		r.emit()
	}
}

func (r *Resampler) emit() {
	phase := int((r.accum * sincPhases) / r.ratio)
	if phase >= sincPhases {
		phase = sincPhases - 1
	}
	kernel := &sincKernel[phase]

	var left, right float32
	for i := 0; i < sincTaps; i++ {
		idx := (r.histPos - sincTaps + i + sincTaps*4) % sincTaps
		l, rr := mixSample(r.history[idx])
		left += l * kernel[i]
		right += rr * kernel[i]
	}

	left, r.dcPrevInL, r.dcPrevOutL = dcBlock(left, r.dcPrevInL, r.dcPrevOutL)
	right, r.dcPrevInR, r.dcPrevOutR = dcBlock(right, r.dcPrevInR, r.dcPrevOutR)

	if r.stereo {
		// Crossfeed matrix per spec.md §4.4: each ear hears 65% of its
		// own channel's mix plus 35% of the other, then scaled by 1.65
		// (so the overall gain is 1.65, not unity).
		outL := (0.65*left + 0.35*right) * 1.65
		outR := (0.35*left + 0.65*right) * 1.65
		r.batch = append(r.batch, toSample(outL), toSample(outR))
	} else {
		mono := (left + right) * 0.5
		r.batch = append(r.batch, toSample(mono))
	}

	if len(r.batch) >= 512 {
		r.flush()
	}
}

func (r *Resampler) flush() {
	if len(r.batch) == 0 {
		return
	}
	if r.cb != nil {
		r.cb(r.batch)
	}
	r.batch = r.batch[:0]
}

// Flush emits any partially-filled batch, used when the host needs
// samples immediately rather than waiting for the batch to fill (e.g.
// end of frame).
func (r *Resampler) Flush() { r.flush() }

const dcPole = 0.999

func dcBlock(in, prevIn, prevOut float32) (out, newPrevIn, newPrevOut float32) {
	out = in - prevIn + dcPole*prevOut
	return out, in, out
}

func toSample(v float32) int16 {
	v *= 32767 * 1.5
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}
