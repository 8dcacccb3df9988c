package fft

import (
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, cycles float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * cycles * float64(i) / float64(n))
	}
	return s
}

func TestCalculate_Lengths(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 64, 100} {
		freqs, re, im := Calculate(make([]float64, n), 1)
		assert.Len(t, freqs, n/2, "n=%d", n)
		assert.Len(t, re, n/2, "n=%d", n)
		assert.Len(t, im, n/2, "n=%d", n)
	}
}

func TestCalculate_Frequencies(t *testing.T) {
	freqs, _, _ := Calculate(make([]float64, 8), 800)
	assert.Equal(t, []float64{0, 100, 200, 300}, freqs)
}

func TestCalculate_DC(t *testing.T) {
	signal := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	_, re, im := Calculate(signal, 1)

	assert.InDelta(t, 8, re[0], 1e-9)
	for k := 1; k < len(re); k++ {
		assert.InDelta(t, 0, re[k], 1e-9)
		assert.InDelta(t, 0, im[k], 1e-9)
	}
}

func TestCalculate_SinePeak(t *testing.T) {
	for _, n := range []int{64, 60} {
		signal := sine(n, 5)
		freqs, re, im := Calculate(signal, float64(n))

		peak := 0
		best := 0.0
		for k := range re {
			mag := math.Hypot(re[k], im[k])
			if mag > best {
				peak, best = k, mag
			}
		}
		assert.Equal(t, 5.0, freqs[peak], "n=%d", n)
		// A unit sine puts n/2 into the positive bin, all imaginary
		assert.InDelta(t, -float64(n)/2, im[peak], 1e-6, "n=%d", n)
		assert.InDelta(t, 0, re[peak], 1e-6, "n=%d", n)
	}
}

// dft is the direct O(n²) transform the fast paths are checked against
func dft(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for k := range out {
		var sum complex128
		for t, v := range x {
			angle := -2 * math.Pi * float64(k*t%n) / float64(n)
			sum += v * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

func complexSignal(n int) []complex128 {
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(0.37*float64(i))+0.25*float64(i%5), 0)
	}
	return x
}

func TestCalculate_Radix2MatchesDFT(t *testing.T) {
	signal := []float64{0.5, -1, 2, 3.25, 0, 1, -0.75, 4}
	x := make([]complex128, len(signal))
	for i, v := range signal {
		x[i] = complex(v, 0)
	}

	fast := radix2(x)
	slow := dft(x)
	require.Len(t, fast, len(slow))
	for k := range slow {
		assert.InDelta(t, real(slow[k]), real(fast[k]), 1e-9)
		assert.InDelta(t, imag(slow[k]), imag(fast[k]), 1e-9)
	}
}

func TestCalculate_BluesteinMatchesDFT(t *testing.T) {
	for _, n := range []int{3, 5, 6, 7, 12, 60, 100, 1000} {
		x := complexSignal(n)
		fast := bluestein(x)
		slow := dft(x)
		require.Len(t, fast, n)
		for k := range slow {
			assert.InDelta(t, real(slow[k]), real(fast[k]), 1e-8, "n=%d k=%d", n, k)
			assert.InDelta(t, imag(slow[k]), imag(fast[k]), 1e-8, "n=%d k=%d", n, k)
		}
	}
}

func TestCalculate_LargeNonPowerOfTwo(t *testing.T) {
	const n = 100_000
	start := time.Now()
	freqs, re, im := Calculate(sine(n, 1234), n)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*time.Second, "n=%d took %s", n, elapsed)
	require.Len(t, re, n/2)
	assert.Equal(t, 1234.0, freqs[1234])
	assert.InDelta(t, -float64(n)/2, im[1234], 1e-3)
	assert.InDelta(t, 0, re[1234], 1e-3)
}

func TestCalculate_NonPositiveRate(t *testing.T) {
	freqs, _, _ := Calculate(make([]float64, 4), 0)
	assert.Equal(t, []float64{0, 0.25}, freqs)
}
