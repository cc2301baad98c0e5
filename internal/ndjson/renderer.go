package ndjson

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/nexuscore/agent/pkg/bus"
)

// Renderer drains a bus.Receiver and writes one JSON record per line to an
// io.Writer, until the receiver observes bus.ErrClosed or a receive or
// write error occurs.
type Renderer struct {
	recv   *bus.Receiver
	out    io.Writer
	logger *slog.Logger
}

// NewRenderer creates a renderer over recv, writing to out.
func NewRenderer(recv *bus.Receiver, out io.Writer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{recv: recv, out: out, logger: logger.With("component", "ndjson_renderer")}
}

// Ready writes the initial "ready" record, signalling the bridge protocol
// handshake is complete.
func (r *Renderer) Ready() error {
	return r.writeLine(Record{Type: OutReady})
}

// Run drains the bus until it closes, writing one record per mapped
// message. A Lagged notification is itself surfaced as an error record so
// the external UI knows it may have missed output.
func (r *Renderer) Run() error {
	for {
		msg, err := r.recv.Recv()
		if err != nil {
			var lagged *bus.LaggedError
			if errors.As(err, &lagged) {
				if werr := r.writeLine(Record{Type: OutError, Error: lagged.Error()}); werr != nil {
					return werr
				}
				continue
			}
			if errors.Is(err, bus.ErrClosed) {
				return nil
			}
			return err
		}
		rec, ok := MapMessage(msg)
		if !ok {
			continue
		}
		if err := r.writeLine(rec); err != nil {
			return err
		}
	}
}

func (r *Renderer) writeLine(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = r.out.Write(data)
	return err
}

// CommandReader reads one NDJSON command at a time from an io.Reader,
// matching the teacher's bufio.Scanner-with-enlarged-buffer framing
// (internal/mcp.StdioTransport) so a single long line never truncates a
// command.
type CommandReader struct {
	scanner *bufio.Scanner
}

// NewCommandReader wraps in with a 1MB line buffer.
func NewCommandReader(in io.Reader) *CommandReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &CommandReader{scanner: scanner}
}

// Next reads and parses the next command line. It returns io.EOF once the
// underlying reader is exhausted.
func (c *CommandReader) Next() (Command, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Command{}, err
		}
		return Command{}, io.EOF
	}
	return ParseCommand(c.scanner.Bytes())
}
