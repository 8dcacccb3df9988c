package chunk

import (
	"bytes"
	"errors"
	"io"

	"github.com/RMahshie/rfcontrol/internal/rferr"
)

// DataSource yields inbound data chunks in arrival order. It returns io.EOF when the
// transport ends.
type DataSource interface {
	Recv() (DataChunk, error)
}

// FFTSource yields inbound FFT chunks in arrival order. It returns io.EOF when the
// transport ends.
type FFTSource interface {
	Recv() (FFTChunk, error)
}

// Sequence tracks the ids seen on one stream.
type Sequence struct {
	started bool
	last    uint64
}

// Increasing accepts id if it is strictly greater than the previous one
func (s *Sequence) Increasing(id uint64) error {
	if s.started && id <= s.last {
		return rferr.New(rferr.MalformedChunk, "chunk id %d does not follow %d", id, s.last)
	}
	s.started, s.last = true, id
	return nil
}

// Contiguous accepts id if it is exactly one past the previous one. The first id
// seen is taken as the origin.
func (s *Sequence) Contiguous(id uint64) error {
	if s.started && id != s.last+1 {
		return rferr.New(rferr.MalformedChunk, "expected chunk id %d, got %d", s.last+1, id)
	}
	s.started, s.last = true, id
	return nil
}

// Assembler concatenates data chunks into one buffer
type Assembler struct {
	buf  bytes.Buffer
	seq  Sequence
	n    int
	done bool
}

// Add appends c. It reports true once the terminal chunk has been added; chunks
// added after that are rejected.
func (a *Assembler) Add(c DataChunk) (bool, error) {
	if a.done {
		return true, rferr.New(rferr.MalformedChunk, "chunk %d arrived after the terminal chunk", c.ID)
	}
	if err := a.seq.Contiguous(c.ID); err != nil {
		return false, err
	}
	a.buf.Write(c.Data)
	a.n++
	a.done = c.Last
	return a.done, nil
}

// Bytes returns the assembled payload
func (a *Assembler) Bytes() []byte { return a.buf.Bytes() }

// Chunks returns how many chunks have been added
func (a *Assembler) Chunks() int { return a.n }

// Reset discards everything added so far
func (a *Assembler) Reset() { *a = Assembler{} }

// Reassemble reads src until the terminal chunk and returns the concatenated payload.
// Anything queued after the terminal chunk is left unread.
func Reassemble(src DataSource) ([]byte, error) {
	var a Assembler
	for {
		c, err := src.Recv()
		if errors.Is(err, io.EOF) {
			return nil, rferr.Wrap(rferr.TruncatedStream, err, "transport ended after %d chunks without a terminal chunk", a.Chunks())
		}
		if err != nil {
			return nil, err
		}
		done, err := a.Add(c)
		if err != nil {
			return nil, err
		}
		if done {
			return a.Bytes(), nil
		}
	}
}

// ReassembleFFT reads src until the terminal chunk and returns the concatenated
// coefficient pair.
func ReassembleFFT(src FFTSource) ([]float64, []float64, error) {
	var (
		seq      Sequence
		re, im   []float64
		received int
	)
	for {
		c, err := src.Recv()
		if errors.Is(err, io.EOF) {
			return nil, nil, rferr.Wrap(rferr.TruncatedStream, err, "transport ended after %d chunks without a terminal chunk", received)
		}
		if err != nil {
			return nil, nil, err
		}
		if err := ValidateFFT(c); err != nil {
			return nil, nil, err
		}
		if err := seq.Contiguous(c.ID); err != nil {
			return nil, nil, err
		}
		re = append(re, c.Real...)
		im = append(im, c.Imag...)
		received++
		if c.Last {
			return re, im, nil
		}
	}
}

// ValidateFFT checks that the real and imaginary parts of c have equal length
func ValidateFFT(c FFTChunk) error {
	if len(c.Real) != len(c.Imag) {
		return rferr.New(rferr.MalformedChunk, "chunk %d has %d real and %d imaginary coefficients", c.ID, len(c.Real), len(c.Imag))
	}
	return nil
}
