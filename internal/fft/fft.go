// Package fft computes the one-sided spectrum that clients stream as FFT coefficients.
package fft

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// Calculate transforms signal and returns the bins from DC up to, but excluding,
// the Nyquist bin: n/2 frequencies with their real and imaginary coefficients.
// Coefficients are unnormalized. sampleRate is in Hz; a non-positive rate is
// treated as 1.
func Calculate(signal []float64, sampleRate float64) (freqs, re, im []float64) {
	n := len(signal)
	half := n / 2
	freqs = make([]float64, half)
	re = make([]float64, half)
	im = make([]float64, half)
	if half == 0 {
		return freqs, re, im
	}
	if sampleRate <= 0 {
		sampleRate = 1
	}

	x := make([]complex128, n)
	for i, v := range signal {
		x[i] = complex(v, 0)
	}

	var out []complex128
	if n&(n-1) == 0 {
		out = radix2(x)
	} else {
		out = bluestein(x)
	}

	step := sampleRate / float64(n)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) * step
		re[k] = real(out[k])
		im[k] = imag(out[k])
	}
	return freqs, re, im
}

// radix2 is an iterative Cooley-Tukey transform. len(x) must be a power of two.
func radix2(x []complex128) []complex128 {
	n := len(x)
	shift := uint(bits.UintSize - bits.TrailingZeros(uint(n)))

	result := make([]complex128, n)
	for i := 0; i < n; i++ {
		result[bits.Reverse(uint(i))>>shift] = x[i]
	}

	// twiddle[j] = e^(-2πij/n); a stage of width size uses every (n/size)th entry
	twiddle := make([]complex128, n/2)
	for j := range twiddle {
		twiddle[j] = cmplx.Exp(complex(0, -2*math.Pi*float64(j)/float64(n)))
	}

	for size := 2; size <= n; size *= 2 {
		halfSize := size / 2
		stride := n / size
		for i := 0; i < n; i += size {
			for k := 0; k < halfSize; k++ {
				t := result[i+k+halfSize] * twiddle[k*stride]
				result[i+k+halfSize] = result[i+k] - t
				result[i+k] += t
			}
		}
	}
	return result
}

// bluestein computes a DFT of any length as a circular convolution of
// power-of-two length, so it costs three radix2 transforms.
func bluestein(x []complex128) []complex128 {
	n := len(x)
	m := 1
	for m < 2*n-1 {
		m <<= 1
	}

	// chirp[k] = e^(-πik²/n); k² is reduced mod 2n to keep the angle small
	chirp := make([]complex128, n)
	for k := range chirp {
		sq := (uint64(k) * uint64(k)) % uint64(2*n)
		chirp[k] = cmplx.Exp(complex(0, -math.Pi*float64(sq)/float64(n)))
	}

	a := make([]complex128, m)
	for k, v := range x {
		a[k] = v * chirp[k]
	}
	b := make([]complex128, m)
	b[0] = cmplx.Conj(chirp[0])
	for k := 1; k < n; k++ {
		b[k] = cmplx.Conj(chirp[k])
		b[m-k] = b[k]
	}

	fa := radix2(a)
	fb := radix2(b)
	for i := range fa {
		fa[i] = cmplx.Conj(fa[i] * fb[i])
	}
	// inverse transform via conjugation: ifft(y) = conj(fft(conj(y))) / m
	conv := radix2(fa)

	out := make([]complex128, n)
	scale := complex(1/float64(m), 0)
	for k := range out {
		out[k] = cmplx.Conj(conv[k]) * scale * chirp[k]
	}
	return out
}
