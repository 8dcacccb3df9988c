package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/rfcontrol/internal/api/wsconn"
	"github.com/RMahshie/rfcontrol/internal/chunk"
	"github.com/RMahshie/rfcontrol/internal/stream"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

// dial opens a stream endpoint. The returned id is set when the server stores the stream.
func (c *client) dial(ctx context.Context, path string) (*websocket.Conn, string, func(), error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint("ws", path), nil)
	if err != nil {
		return nil, "", nil, fmt.Errorf("dial %s: %w", path, err)
	}
	stop := wsconn.Watch(ctx, conn)
	return conn, resp.Header.Get(models.StreamIDHeader), func() {
		stop()
		conn.Close()
	}, nil
}

// transferFile streams a file through TransferData and checks the echoed payload.
// It returns the stored stream id, empty when the server does not store transfers.
// A non-positive chunkSize uses the server's limit.
func (c *client) transferFile(ctx context.Context, path string, chunkSize int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if chunkSize <= 0 {
		health, err := c.health(ctx)
		if err != nil {
			return "", err
		}
		chunkSize = health.DataChunkSize
	}
	conn, id, closeConn, err := c.dial(ctx, "/api/stream/transfer")
	if err != nil {
		return "", err
	}
	defer closeConn()

	ds := wsconn.New[chunk.DataChunk, chunk.DataChunk](conn)

	// Send and receive concurrently so neither side stalls on a full buffer
	sent := make(chan error, 1)
	go func() {
		for dc := range chunk.Split(data, chunkSize).All() {
			if err := ds.Send(dc); err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	echoed, err := chunk.Reassemble(ds)
	if err != nil {
		return "", fmt.Errorf("receive transfer: %w", err)
	}
	if err := <-sent; err != nil {
		return "", fmt.Errorf("send transfer: %w", err)
	}
	wsconn.Close(conn, nil)

	markers := bytes.Count(echoed, []byte(stream.DefaultMarker))
	event := log.Info().
		Str("file", path).
		Int("sent_bytes", len(data)).
		Int("received_bytes", len(echoed)).
		Int("chunks", markers)
	if id != "" {
		event = event.Str("stored", "transfers/"+id)
	}
	event.Msg("Transfer complete")
	return id, nil
}

// streamCoefficients sends re/im in chunks and prints each acknowledgement
func (c *client) streamCoefficients(ctx context.Context, re, im []float64, size int) error {
	splitter, err := chunk.SplitFFT(re, im, size)
	if err != nil {
		return err
	}
	conn, id, closeConn, err := c.dial(ctx, "/api/stream/fft")
	if err != nil {
		return err
	}
	defer closeConn()

	fs := wsconn.New[stream.FFTStatus, chunk.FFTChunk](conn)

	sent := make(chan error, 1)
	go func() {
		for fc := range splitter.All() {
			if err := fs.Send(fc); err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	for {
		status, err := fs.Recv()
		if err != nil {
			return fmt.Errorf("receive status: %w", err)
		}
		fmt.Printf("Server response for chunk %d: %s\n", status.ID, status.Status)
		if status.Last {
			break
		}
	}
	if err := <-sent; err != nil {
		return fmt.Errorf("send coefficients: %w", err)
	}
	wsconn.Close(conn, nil)
	if id != "" {
		log.Info().Str("stored", "fft/"+id).Msg("Coefficients stored")
	}
	return nil
}
