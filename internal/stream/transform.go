package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/chunk"
	"github.com/RMahshie/rfcontrol/internal/storage"
)

// DefaultMarker is appended to every TransferData payload
const DefaultMarker = "_processed"

// Transform computes the response payload for one inbound data chunk.
// A Transform instance serves a single stream.
type Transform interface {
	Apply(ctx context.Context, c chunk.DataChunk) ([]byte, error)
	// Abort is called when the stream ends before its terminal chunk was answered.
	Abort()
}

// TransformFunc adapts a stateless function to Transform
type TransformFunc func(ctx context.Context, c chunk.DataChunk) ([]byte, error)

func (f TransformFunc) Apply(ctx context.Context, c chunk.DataChunk) ([]byte, error) {
	return f(ctx, c)
}

func (f TransformFunc) Abort() {}

// AppendMarker returns a transform that echoes each payload with marker appended
func AppendMarker(marker string) Transform {
	return TransformFunc(func(ctx context.Context, c chunk.DataChunk) ([]byte, error) {
		out := make([]byte, 0, len(c.Data)+len(marker))
		out = append(out, c.Data...)
		return append(out, marker...), nil
	})
}

// storeTransform collects the inbound payload and persists it once the terminal
// chunk arrives. Responses come from next. Chunk ordering is enforced by the
// session, so payloads are appended as they come.
type storeTransform struct {
	next   Transform
	store  storage.ObjectStore
	key    string
	buf    bytes.Buffer
	chunks int
}

// Store returns a transform that uploads the reassembled transfer to store under
// key when the terminal chunk is processed. Nothing is uploaded for a stream that
// ends early.
func Store(next Transform, store storage.ObjectStore, key string) Transform {
	return &storeTransform{next: next, store: store, key: key}
}

func (t *storeTransform) Apply(ctx context.Context, c chunk.DataChunk) ([]byte, error) {
	t.buf.Write(c.Data)
	t.chunks++
	if c.Last {
		if err := t.store.Put(ctx, t.key, t.buf.Bytes(), "application/octet-stream"); err != nil {
			return nil, fmt.Errorf("store transfer: %w", err)
		}
		log.Info().Str("key", t.key).Int("bytes", t.buf.Len()).Int("chunks", t.chunks).Msg("Transfer stored")
		t.reset()
	}
	return t.next.Apply(ctx, c)
}

func (t *storeTransform) Abort() {
	if t.chunks > 0 {
		log.Warn().Str("key", t.key).Int("chunks", t.chunks).Msg("Discarding partial transfer")
	}
	t.reset()
	t.next.Abort()
}

func (t *storeTransform) reset() {
	t.buf.Reset()
	t.chunks = 0
}

// CoefficientSink receives FFT coefficient chunks.
// A sink instance serves a single stream or unary call.
type CoefficientSink interface {
	Accept(ctx context.Context, c chunk.FFTChunk) error
	// Abort is called when the stream ends before its terminal chunk was accepted.
	Abort()
}

// CountingSink tallies received coefficients without keeping them
type CountingSink struct {
	Real int
	Imag int
}

func (s *CountingSink) Accept(ctx context.Context, c chunk.FFTChunk) error {
	s.Real += len(c.Real)
	s.Imag += len(c.Imag)
	return nil
}

func (s *CountingSink) Abort() {}

// StoredCoefficients is the JSON document written by StoreSink
type StoredCoefficients struct {
	Real []float64 `json:"real"`
	Imag []float64 `json:"imag"`
}

type storeSink struct {
	store storage.ObjectStore
	key   string
	doc   StoredCoefficients
}

// StoreSink returns a sink that writes the complete coefficient set to store as JSON
// when the terminal chunk arrives.
func StoreSink(store storage.ObjectStore, key string) CoefficientSink {
	return &storeSink{store: store, key: key}
}

func (s *storeSink) Accept(ctx context.Context, c chunk.FFTChunk) error {
	s.doc.Real = append(s.doc.Real, c.Real...)
	s.doc.Imag = append(s.doc.Imag, c.Imag...)
	if !c.Last {
		return nil
	}
	if s.doc.Real == nil {
		s.doc = StoredCoefficients{Real: []float64{}, Imag: []float64{}}
	}
	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encode coefficients: %w", err)
	}
	if err := s.store.Put(ctx, s.key, data, "application/json"); err != nil {
		return fmt.Errorf("store coefficients: %w", err)
	}
	log.Info().Str("key", s.key).Int("coefficients", len(s.doc.Real)).Msg("Coefficients stored")
	s.doc = StoredCoefficients{}
	return nil
}

func (s *storeSink) Abort() {
	s.doc = StoredCoefficients{}
}
