package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Transport is the message transport underneath the MCP client. Messages are
// whole JSON-RPC payloads; framing is the transport's concern.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// stdioTransport frames messages with Content-Length headers over a server
// process's stdin/stdout, as the MCP stdio transport specifies.
type stdioTransport struct {
	reader       *bufio.Reader
	writer       io.Writer
	stdinCloser  io.Closer
	stdoutCloser io.Closer
	writeMu      sync.Mutex
}

// NewStdioTransport wraps a subprocess's stdin/stdout pipes in the
// Content-Length framed stdio transport.
func NewStdioTransport(stdin io.WriteCloser, stdout io.ReadCloser) Transport {
	return &stdioTransport{
		reader:       bufio.NewReader(stdout),
		writer:       stdin,
		stdinCloser:  stdin,
		stdoutCloser: stdout,
	}
}

func (t *stdioTransport) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))
	if _, err := io.WriteString(t.writer, header); err != nil {
		return err
	}
	_, err := t.writer.Write(payload)
	return err
}

func (t *stdioTransport) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	length, err := t.readContentLength()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(t.reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *stdioTransport) Close() error {
	var err error
	if t.stdinCloser != nil {
		if e := t.stdinCloser.Close(); e != nil {
			err = e
		}
	}
	if t.stdoutCloser != nil {
		if e := t.stdoutCloser.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (t *stdioTransport) readContentLength() (int, error) {
	length := -1
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			value := strings.TrimSpace(line[len("content-length:"):])
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return 0, fmt.Errorf("mcp: invalid content length: %w", err)
			}
			length = parsed
		}
	}
	if length < 0 {
		return 0, errors.New("mcp: missing Content-Length header")
	}
	return length, nil
}
