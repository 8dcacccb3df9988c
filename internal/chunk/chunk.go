// Package chunk splits large payloads into ordered, terminated chunk sequences and
// reassembles them.
//
// Chunk ids start at 0 on both the raw data and the FFT coefficient paths and grow by
// one per chunk. Exactly one chunk per sequence has Last set and it is always the final
// chunk. An empty payload is sent as a single empty terminal chunk.
package chunk

import (
	"iter"

	"github.com/RMahshie/rfcontrol/internal/rferr"
)

const (
	// DefaultDataChunkSize is the raw transfer chunk size in bytes
	DefaultDataChunkSize = 1024 * 1024
	// DefaultFFTChunkSize is the number of coefficient pairs per FFT chunk
	DefaultFFTChunkSize = 1000
)

// DataChunk is one piece of a raw byte transfer
type DataChunk struct {
	ID   uint64 `json:"chunk_id"`
	Data []byte `json:"data"`
	Last bool   `json:"is_last"`
}

// FFTChunk is one piece of an FFT coefficient transfer. Real and Imag have equal length.
type FFTChunk struct {
	ID   uint64    `json:"chunk_id"`
	Real []float64 `json:"real"`
	Imag []float64 `json:"imag"`
	Last bool      `json:"is_last_chunk"`
}

// ByteSplitter lazily yields the chunks of a byte buffer. It is single use; call
// Split again to restart.
type ByteSplitter struct {
	buf  []byte
	size int
	off  int
	id   uint64
	done bool
}

// Split returns a splitter over buf. A size <= 0 selects DefaultDataChunkSize.
// Chunks alias buf; they are not copies.
func Split(buf []byte, size int) *ByteSplitter {
	if size <= 0 {
		size = DefaultDataChunkSize
	}
	return &ByteSplitter{buf: buf, size: size}
}

// Next returns the next chunk, or false once the terminal chunk has been returned
func (s *ByteSplitter) Next() (DataChunk, bool) {
	if s.done {
		return DataChunk{}, false
	}
	end := s.off + s.size
	last := end >= len(s.buf)
	if last {
		end = len(s.buf)
	}
	c := DataChunk{ID: s.id, Data: s.buf[s.off:end], Last: last}
	s.off = end
	s.id++
	s.done = last
	return c, true
}

// All drains the splitter as a range-over-func sequence
func (s *ByteSplitter) All() iter.Seq[DataChunk] {
	return func(yield func(DataChunk) bool) {
		for {
			c, ok := s.Next()
			if !ok || !yield(c) {
				return
			}
		}
	}
}

// FFTSplitter lazily yields the chunks of a coefficient pair
type FFTSplitter struct {
	real []float64
	imag []float64
	size int
	off  int
	done bool
}

// SplitFFT returns a splitter over (re, im). Mismatched lengths are a MalformedChunk
// error. A size <= 0 selects DefaultFFTChunkSize.
func SplitFFT(re, im []float64, size int) (*FFTSplitter, error) {
	if len(re) != len(im) {
		return nil, rferr.New(rferr.MalformedChunk, "real and imaginary parts differ in length (%d != %d)", len(re), len(im))
	}
	if size <= 0 {
		size = DefaultFFTChunkSize
	}
	return &FFTSplitter{real: re, imag: im, size: size}, nil
}

// Next returns the next chunk, or false once the terminal chunk has been returned
func (s *FFTSplitter) Next() (FFTChunk, bool) {
	if s.done {
		return FFTChunk{}, false
	}
	end := s.off + s.size
	last := end >= len(s.real)
	if last {
		end = len(s.real)
	}
	c := FFTChunk{
		ID:   uint64(s.off / s.size),
		Real: s.real[s.off:end],
		Imag: s.imag[s.off:end],
		Last: last,
	}
	s.off = end
	s.done = last
	return c, true
}

// All drains the splitter as a range-over-func sequence
func (s *FFTSplitter) All() iter.Seq[FFTChunk] {
	return func(yield func(FFTChunk) bool) {
		for {
			c, ok := s.Next()
			if !ok || !yield(c) {
				return
			}
		}
	}
}
