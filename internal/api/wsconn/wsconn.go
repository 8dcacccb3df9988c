// Package wsconn carries chunk streams over websocket connections, one JSON message
// per chunk, and maps stream errors to and from close frames.
package wsconn

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/RMahshie/rfcontrol/internal/rferr"
)

// closeCodeBase offsets rferr codes into the websocket private close code range
const closeCodeBase = 4000

const writeWait = 5 * time.Second

// Stream reads In messages and writes Out messages on a websocket connection.
// Recv and Send must each be called from a single goroutine.
type Stream[In, Out any] struct {
	conn *websocket.Conn
}

// New wraps conn
func New[In, Out any](conn *websocket.Conn) *Stream[In, Out] {
	return &Stream[In, Out]{conn: conn}
}

// Recv reads the next message. A close from the peer is reported as io.EOF, or as
// the peer's rferr error when the close code carries one.
func (s *Stream[In, Out]) Recv() (In, error) {
	var msg In
	if err := s.conn.ReadJSON(&msg); err != nil {
		var zero In
		return zero, FromClose(err)
	}
	return msg, nil
}

// Send writes one message
func (s *Stream[In, Out]) Send(msg Out) error {
	return s.conn.WriteJSON(msg)
}

// Conn returns the underlying connection
func (s *Stream[In, Out]) Conn() *websocket.Conn { return s.conn }

// Watch closes conn when ctx is done so that a blocked read returns. The returned
// stop function releases the watcher and must be called once the stream ends.
func Watch(ctx context.Context, conn *websocket.Conn) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// CloseCode returns the close code reported to the peer for err
func CloseCode(err error) int {
	if err == nil {
		return websocket.CloseNormalClosure
	}
	if code := rferr.CodeOf(err); code != 0 {
		return closeCodeBase + int(code)
	}
	return websocket.CloseInternalServerErr
}

// Close ends the stream with a close frame describing err. A nil err closes normally.
func Close(conn *websocket.Conn, err error) error {
	reason := ""
	if err != nil {
		reason = err.Error()
		if e, ok := rferr.As(err); ok {
			reason = e.Detail
		}
	}
	reason = truncateReason(reason)
	msg := websocket.FormatCloseMessage(CloseCode(err), reason)
	werr := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		return werr
	}
	return nil
}

// maxReasonBytes is what remains of a 125 byte control frame after the close code
const maxReasonBytes = 123

// truncateReason shortens s to fit a close frame without splitting a rune, which
// the peer would reject as invalid UTF-8.
func truncateReason(s string) string {
	if len(s) <= maxReasonBytes {
		return s
	}
	s = s[:maxReasonBytes]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// FromClose converts a read error into the error the stream ended with
func FromClose(err error) error {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	switch {
	case ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway || ce.Code == websocket.CloseNoStatusReceived:
		return io.EOF
	case ce.Code > closeCodeBase && ce.Code < closeCodeBase+1000:
		return rferr.New(rferr.Code(ce.Code-closeCodeBase), "%s", ce.Text)
	default:
		return err
	}
}
