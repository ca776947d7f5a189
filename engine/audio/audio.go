// Package audio is the boundary to audio analysis. An analysis producer publishes Snapshots into a Feed;
// the frame loop reads the newest one each tick.
package audio

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Snapshot is one analysed window of audio. All methods are read-only.
type Snapshot interface {
	// RMS returns the root mean square of the time-domain samples.
	RMS() float32

	// RMSRange returns the root mean square of the spectrum magnitudes in the band [f0, f1) Hz. An empty
	// band returns 0.
	//
	// Parameters:
	//   - f0: the lower band edge in Hz
	//   - f1: the upper band edge in Hz
	//
	// Returns:
	//   - float32: the band energy
	RMSRange(f0, f1 float32) float32

	// Peak returns the largest absolute sample.
	Peak() float32

	// Samples returns the time-domain window, oldest first. Callers must not modify it.
	Samples() []float32

	// FFT returns the magnitude spectrum: bin k covers k*SampleRate/len(Samples) Hz. Callers must not
	// modify it.
	FFT() []float32
}

// Analysis is the Snapshot computed from one window of samples.
type Analysis struct {
	sampleRate float32
	samples    []float32
	spectrum   []float32
	rms        float32
	peak       float32
}

var _ Snapshot = &Analysis{}

// Analyze computes RMS, peak and the magnitude spectrum of samples. The window is zero-padded to the next
// power of two before the transform; the spectrum holds the non-negative frequency half, normalised so a
// full-scale sine peaks near 1.
//
// Parameters:
//   - samples: the time-domain window; it is copied
//   - sampleRate: samples per second
//
// Returns:
//   - *Analysis: the snapshot
func Analyze(samples []float32, sampleRate float32) *Analysis {
	a := &Analysis{
		sampleRate: sampleRate,
		samples:    append([]float32(nil), samples...),
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
		a.peak = max(a.peak, float32(math.Abs(float64(s))))
	}
	if len(samples) > 0 {
		a.rms = float32(math.Sqrt(sum / float64(len(samples))))
	}

	n := 1
	for n < len(samples) {
		n <<= 1
	}
	seq := make([]float64, n)
	for i, s := range samples {
		seq[i] = float64(s)
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, seq)

	a.spectrum = make([]float32, len(coeffs))
	for k, c := range coeffs {
		a.spectrum[k] = float32(cmplx.Abs(c) * 2 / float64(n))
	}
	return a
}

func (a *Analysis) RMS() float32       { return a.rms }
func (a *Analysis) Peak() float32      { return a.peak }
func (a *Analysis) Samples() []float32 { return a.samples }
func (a *Analysis) FFT() []float32     { return a.spectrum }

// SampleRate returns the rate the window was captured at.
func (a *Analysis) SampleRate() float32 { return a.sampleRate }

func (a *Analysis) RMSRange(f0, f1 float32) float32 {
	n := 2 * (len(a.spectrum) - 1)
	if n <= 0 || a.sampleRate <= 0 || f1 <= f0 {
		return 0
	}
	binHz := a.sampleRate / float32(n)
	lo := max(int(math.Ceil(float64(f0/binHz))), 0)
	hi := min(int(math.Ceil(float64(f1/binHz))), len(a.spectrum))

	var sum float64
	for _, m := range a.spectrum[min(lo, hi):hi] {
		sum += float64(m) * float64(m)
	}
	if hi <= lo {
		return 0
	}
	return float32(math.Sqrt(sum / float64(hi-lo)))
}
