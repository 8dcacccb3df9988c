package wsconn

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/rfcontrol/internal/rferr"
)

type message struct {
	N int `json:"n"`
}

func TestCloseCode(t *testing.T) {
	assert.Equal(t, websocket.CloseNormalClosure, CloseCode(nil))
	assert.Equal(t, 4004, CloseCode(rferr.New(rferr.TruncatedStream, "short")))
	assert.Equal(t, 4005, CloseCode(errors.Join(errors.New("ctx"), rferr.New(rferr.MalformedChunk, "bad"))))
	assert.Equal(t, websocket.CloseInternalServerErr, CloseCode(errors.New("boom")))
}

func TestFromClose(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"normal", &websocket.CloseError{Code: websocket.CloseNormalClosure}, io.EOF},
		{"going away", &websocket.CloseError{Code: websocket.CloseGoingAway}, io.EOF},
		{"unexpected eof", io.ErrUnexpectedEOF, io.EOF},
		{"domain code", &websocket.CloseError{Code: 4005, Text: "chunk id 2 does not follow 3"}, rferr.ErrMalformedChunk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, FromClose(tt.in), tt.want)
		})
	}

	e, ok := rferr.As(FromClose(&websocket.CloseError{Code: 4001, Text: `device "x" is not connected`}))
	require.True(t, ok)
	assert.Equal(t, rferr.DeviceNotFound, e.Code)
	assert.Equal(t, `device "x" is not connected`, e.Detail)
}

// echoServer answers each message once and then closes with the error returned by fail
func echoServer(t *testing.T, fail func(n int) error) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		s := New[message, message](conn)
		for {
			msg, err := s.Recv()
			if err != nil {
				return
			}
			if ferr := fail(msg.N); ferr != nil {
				Close(conn, ferr)
				return
			}
			if err := s.Send(msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStream_RoundTripAndClose(t *testing.T) {
	url := echoServer(t, func(n int) error {
		if n == 2 {
			return rferr.New(rferr.MalformedChunk, "message %d rejected", n)
		}
		return nil
	})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	s := New[message, message](conn)
	require.NoError(t, s.Send(message{N: 1}))
	got, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, 1, got.N)

	require.NoError(t, s.Send(message{N: 2}))
	_, err = s.Recv()
	assert.ErrorIs(t, err, rferr.ErrMalformedChunk)
	assert.Contains(t, err.Error(), "message 2 rejected")
}

func TestWatch_UnblocksRead(t *testing.T) {
	url := echoServer(t, func(int) error { return nil })

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stop := Watch(ctx, conn)
	defer stop()

	done := make(chan error, 1)
	go func() {
		_, err := New[message, message](conn).Recv()
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read was not unblocked by cancellation")
	}
}

func TestClose_TruncatesReason(t *testing.T) {
	long := strings.Repeat("x", 300)
	url := echoServer(t, func(int) error { return rferr.New(rferr.MalformedChunk, "%s", long) })

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	s := New[message, message](conn)
	require.NoError(t, s.Send(message{N: 1}))
	_, err = s.Recv()
	e, ok := rferr.As(err)
	require.True(t, ok)
	assert.Len(t, e.Detail, 123)
}

func TestTruncateReason(t *testing.T) {
	assert.Equal(t, "short", truncateReason("short"))

	// 2-byte runes leave a split rune at byte 123
	got := truncateReason(strings.Repeat("é", 100))
	assert.Len(t, got, 122)
	assert.True(t, utf8.ValidString(got))
}

func TestClose_MultibyteReasonKeepsCode(t *testing.T) {
	detail := "fréquence: " + strings.Repeat("é", 100)
	url := echoServer(t, func(int) error { return rferr.New(rferr.MalformedChunk, "%s", detail) })

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	s := New[message, message](conn)
	require.NoError(t, s.Send(message{N: 1}))
	_, err = s.Recv()
	assert.ErrorIs(t, err, rferr.ErrMalformedChunk)
	e, ok := rferr.As(err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(detail, e.Detail))
	assert.True(t, utf8.ValidString(e.Detail))
}
