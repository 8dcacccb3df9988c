// Package stream drives the bidirectional chunk exchanges: every inbound chunk is
// processed and answered with exactly one outbound message before the next one is read.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/chunk"
	"github.com/RMahshie/rfcontrol/internal/metrics"
	"github.com/RMahshie/rfcontrol/internal/rferr"
)

// State is the position of a session in its per-chunk loop
type State int32

const (
	StateAwaitingChunk State = iota
	StateProcessing
	StateEmitting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingChunk:
		return "awaiting_chunk"
	case StateProcessing:
		return "processing"
	case StateEmitting:
		return "emitting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DataStream is the transport side of a TransferData exchange
type DataStream interface {
	Recv() (chunk.DataChunk, error)
	Send(chunk.DataChunk) error
}

// FFTStatus acknowledges one FFT chunk
type FFTStatus struct {
	ID     uint64 `json:"chunk_id"`
	Status string `json:"status"`
	Last   bool   `json:"is_last"`
}

// FFTStream is the transport side of a StreamFFTCoefficients exchange
type FFTStream interface {
	Recv() (chunk.FFTChunk, error)
	Send(FFTStatus) error
}

// Session handles one stream. A Session must not be reused.
type Session struct {
	name      string
	state     atomic.Int32
	processed atomic.Int64
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	maxDataBytes    int
	maxCoefficients int
}

// Option configures a Session
type Option func(*Session)

// WithChunkLimits rejects data chunks carrying more than dataBytes and FFT chunks
// carrying more than coefficients pairs. A zero limit is not enforced.
func WithChunkLimits(dataBytes, coefficients int) Option {
	return func(s *Session) {
		s.maxDataBytes = dataBytes
		s.maxCoefficients = coefficients
	}
}

// NewSession creates a session; name labels logs and metrics
func NewSession(name string, m *metrics.Metrics, opts ...Option) *Session {
	s := &Session{
		name:    name,
		metrics: m,
		logger:  log.With().Str("component", "stream").Str("stream", name).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state
func (s *Session) State() State { return State(s.state.Load()) }

// Processed returns how many chunks have been answered
func (s *Session) Processed() int { return int(s.processed.Load()) }

func (s *Session) enter(st State) { s.state.Store(int32(st)) }

// ServeTransfer answers each inbound data chunk with the transformed payload under
// the same id and terminal flag. It returns nil once the terminal chunk has been
// answered. Any other ending aborts t and returns an error.
func (s *Session) ServeTransfer(ctx context.Context, ds DataStream, t Transform) (err error) {
	done := s.open()
	defer func() { done(err) }()

	completed := false
	defer func() {
		if !completed {
			t.Abort()
		}
	}()

	var seq chunk.Sequence
	for {
		c, err := receive(ctx, s, ds.Recv)
		if err != nil {
			return err
		}
		if err := seq.Increasing(c.ID); err != nil {
			return err
		}
		if s.maxDataBytes > 0 && len(c.Data) > s.maxDataBytes {
			return rferr.New(rferr.MalformedChunk, "chunk %d carries %d bytes, limit is %d", c.ID, len(c.Data), s.maxDataBytes)
		}

		out, err := t.Apply(ctx, c)
		if err != nil {
			return fmt.Errorf("transform chunk %d: %w", c.ID, err)
		}

		if err := s.emit(ctx, func() error {
			return ds.Send(chunk.DataChunk{ID: c.ID, Data: out, Last: c.Last})
		}); err != nil {
			return err
		}
		s.logger.Debug().Uint64("chunk_id", c.ID).Int("bytes", len(c.Data)).Bool("is_last", c.Last).Msg("Chunk processed")

		if c.Last {
			completed = true
			return nil
		}
	}
}

// ServeFFT acknowledges each inbound coefficient chunk after handing it to sink.
func (s *Session) ServeFFT(ctx context.Context, fs FFTStream, sink CoefficientSink) (err error) {
	done := s.open()
	defer func() { done(err) }()

	completed := false
	defer func() {
		if !completed {
			sink.Abort()
		}
	}()

	var seq chunk.Sequence
	for {
		c, err := receive(ctx, s, fs.Recv)
		if err != nil {
			return err
		}
		if err := chunk.ValidateFFT(c); err != nil {
			return err
		}
		if err := seq.Increasing(c.ID); err != nil {
			return err
		}
		if s.maxCoefficients > 0 && len(c.Real) > s.maxCoefficients {
			return rferr.New(rferr.MalformedChunk, "chunk %d carries %d coefficients, limit is %d", c.ID, len(c.Real), s.maxCoefficients)
		}

		if err := sink.Accept(ctx, c); err != nil {
			return fmt.Errorf("accept chunk %d: %w", c.ID, err)
		}

		status := FFTStatus{ID: c.ID, Status: fmt.Sprintf("Processed chunk %d", c.ID), Last: c.Last}
		if c.Last {
			status.Status += " (last)"
		}
		if err := s.emit(ctx, func() error { return fs.Send(status) }); err != nil {
			return err
		}
		s.logger.Debug().Uint64("chunk_id", c.ID).Int("coefficients", len(c.Real)).Bool("is_last", c.Last).Msg("Chunk processed")

		if c.Last {
			completed = true
			return nil
		}
	}
}

// AcceptCoefficients handles a complete, unchunked coefficient pair.
func (s *Session) AcceptCoefficients(ctx context.Context, re, im []float64, sink CoefficientSink) (string, error) {
	c := chunk.FFTChunk{ID: 0, Real: re, Imag: im, Last: true}
	if err := chunk.ValidateFFT(c); err != nil {
		s.metrics.ObserveStreamError(s.name, rferr.CodeOf(err).String())
		return "", err
	}
	if err := sink.Accept(ctx, c); err != nil {
		sink.Abort()
		return "", err
	}
	s.logger.Info().Int("real", len(re)).Int("imag", len(im)).Msg("Received FFT coefficients")
	s.processed.Add(1)
	s.metrics.ObserveChunk(s.name)
	return "Success", nil
}

// open marks the session active and returns the function that closes it
func (s *Session) open() func(error) {
	closeGauge := s.metrics.StreamOpened()
	s.logger.Info().Msg("Stream opened")
	return func(err error) {
		s.enter(StateClosed)
		closeGauge()
		if err != nil {
			code := rferr.CodeOf(err).String()
			if errors.Is(err, context.Canceled) {
				code = "canceled"
			}
			s.metrics.ObserveStreamError(s.name, code)
			s.logger.Warn().Err(err).Int("processed", s.Processed()).Msg("Stream terminated")
			return
		}
		s.logger.Info().Int("processed", s.Processed()).Msg("Stream completed")
	}
}

// receive reads the next inbound message for s
func receive[T any](ctx context.Context, s *Session, recv func() (T, error)) (T, error) {
	var zero T
	s.enter(StateAwaitingChunk)
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c, err := recv()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		if errors.Is(err, io.EOF) {
			return zero, rferr.Wrap(rferr.TruncatedStream, err, "stream ended after %d chunks without a terminal chunk", s.Processed())
		}
		return zero, err
	}
	s.enter(StateProcessing)
	return c, nil
}

// emit sends one response unless the stream has been cancelled
func (s *Session) emit(ctx context.Context, send func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.enter(StateEmitting)
	if err := send(); err != nil {
		return fmt.Errorf("send response: %w", err)
	}
	s.processed.Add(1)
	s.metrics.ObserveChunk(s.name)
	return nil
}
