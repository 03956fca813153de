// package httpconn drives a single HTTP/1.0 GET over a raw TCP socket.
//
// A Conn moves strictly forward through its states:
//
//	AwaitingRequest --Request()--> AwaitingResponse --Response()--> ReadingBody --(end of stream)--> Done
//
// Calling an operation in the wrong state fails with a fetcherr.ProtocolState error and changes nothing.
// A Conn is owned by a single goroutine; none of its methods are safe for concurrent use.
//
// Basic usage:
//
//	c, err := httpconn.Open(ctx, ip, 80)
//	if err != nil { ... }
//	defer c.Close()
//	if err := c.Request("/", "example.com"); err != nil { ... }
//	if _, err := c.Response(os.Stderr); err != nil { ... }
package httpconn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"gitlab.com/efronlicht/rawget/fetcherr"
	"go.uber.org/zap"
)

// State is the protocol state of a Conn.
type State uint8

const (
	AwaitingRequest  State = iota // connected; nothing sent yet
	AwaitingResponse              // request written
	ReadingBody                   // response stream open
	Done                          // response stream exhausted
)

func (s State) String() string {
	switch s {
	case AwaitingRequest:
		return "AwaitingRequest"
	case AwaitingResponse:
		return "AwaitingResponse"
	case ReadingBody:
		return "ReadingBody"
	case Done:
		return "Done"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// ErrStatusUnavailable is returned by Status: the response is relayed as raw bytes,
// so no status line is ever captured.
var ErrStatusUnavailable = errors.New("httpconn: status unavailable: response is relayed unparsed")

// ErrClosed is returned by a second call to Close.
var ErrClosed = errors.New("httpconn: connection already closed")

// chunkSize is the size of each read from the socket while relaying.
const chunkSize = 1024

// Conn is an open HTTP connection. Create one with Open.
type Conn struct {
	conn   *net.TCPConn
	state  State
	body   *bufio.Reader // set by Response(nil); feeds Read and ReadByte.
	log    *zap.Logger
	closed bool

	ctxErr     func() error // the Open context's Err
	stopCancel func() bool  // unregisters the cancellation hook set up by Open
}

var (
	_ io.Reader     = (*Conn)(nil)
	_ io.ByteReader = (*Conn)(nil)
	_ io.Closer     = (*Conn)(nil)
)

// Open connects to addr:port over TCP, returning a Conn in state AwaitingRequest.
// addr must be a real address: nil or the unspecified address (0.0.0.0, ::) is a connect error,
// which is what weburl.URL.Address returns for a URL with no hostname.
//
// ctx bounds the connect and every later read and write on the Conn: if ctx has a deadline it becomes the socket's deadline,
// and cancelling ctx unblocks any read or write in progress, which then fails with an error wrapping ctx.Err().
func Open(ctx context.Context, addr net.IP, port int) (*Conn, error) {
	const op = "httpconn.Open"
	if addr == nil || addr.IsUnspecified() {
		return nil, fetcherr.Errorf(fetcherr.Connect, op, "no address to connect to (%v)", addr)
	}
	raddr := &net.TCPAddr{IP: addr, Port: port}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", raddr.String())
	if err != nil {
		return nil, fetcherr.New(fetcherr.Connect, op, err)
	}
	conn := nc.(*net.TCPConn) // "tcp" always dials a *net.TCPConn.
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, fetcherr.New(fetcherr.Connect, op, err)
		}
	}
	log := zap.L().With(zap.Stringer("remote_addr", conn.RemoteAddr()))
	log.Debug("connected")
	return &Conn{
		conn:       conn,
		state:      AwaitingRequest,
		log:        log,
		ctxErr:     ctx.Err,
		stopCancel: context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) }),
	}, nil
}

// State reports the current protocol state.
func (c *Conn) State() State { return c.state }

// RemoteAddr is the address of the peer.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// ioErr wraps a failed read or write, naming the context's error too if that's what cut it short.
func (c *Conn) ioErr(op string, err error) error {
	if cerr := c.ctxErr(); cerr != nil {
		return fetcherr.Errorf(fetcherr.IO, op, "%w: %w", cerr, err)
	}
	return fetcherr.New(fetcherr.IO, op, err)
}

// wrongState builds the error for an operation invoked outside of the states it's valid in.
func (c *Conn) wrongState(op string, want State) error {
	return fetcherr.Errorf(fetcherr.ProtocolState, op, "called in state %s: want %s", c.state, want)
}

// FormatRequest formats the complete GET request for path on host:
//
//	GET <path> HTTP/1.0\r\nHost: <host>\r\n\r\n
//
// The buffer grows to fit; there's no limit on the length of path or host.
func FormatRequest(path, host string) []byte {
	return fmt.Appendf(make([]byte, 0, 32+len(path)+len(host)), "GET %s HTTP/1.0\r\nHost: %s\r\n\r\n", path, host)
}

// Request sends a GET for path with a Host header of host, all in one write, and moves to AwaitingResponse.
// It's valid only in AwaitingRequest.
//
// SIGPIPE is held off for the duration of the write, so a peer that hangs up early
// is reported as an error rather than ending the process.
// A failed write leaves the state unchanged.
func (c *Conn) Request(path, host string) error {
	const op = "httpconn.Request"
	if c.closed {
		return fetcherr.New(fetcherr.IO, op, ErrClosed)
	}
	if c.state != AwaitingRequest {
		return c.wrongState(op, AwaitingRequest)
	}
	req := FormatRequest(path, host)

	if err := c.write(req); err != nil {
		if isPeerReset(err) {
			return fetcherr.Errorf(fetcherr.IO, op, "peer closed the connection: %w", err)
		}
		return c.ioErr(op, err)
	}
	c.log.Debug("sent request", zap.String("path", path), zap.String("host", host), zap.Int("bytes", len(req)))
	c.state = AwaitingResponse
	return nil
}

// write writes b with SIGPIPE suppressed.
func (c *Conn) write(b []byte) error {
	restore := suppressSIGPIPE()
	defer restore()
	_, err := c.conn.Write(b)
	return err
}

// Response starts reading the response and moves to ReadingBody. It's valid only in AwaitingResponse.
//
// The response is not parsed: status line, headers, and body are one opaque stream of bytes.
//
// With a non-nil w, Response relays the stream to w chunk by chunk as it arrives until the peer closes the connection,
// moves to Done, and returns the number of bytes relayed. A peer that closes without sending anything relays zero bytes.
// If reading or writing fails partway, the Conn stays in ReadingBody.
//
// With a nil w, Response reads nothing: the caller consumes the stream with Read or ReadByte.
func (c *Conn) Response(w io.Writer) (n int64, err error) {
	const op = "httpconn.Response"
	if c.closed {
		return 0, fetcherr.New(fetcherr.IO, op, ErrClosed)
	}
	if c.state != AwaitingResponse {
		return 0, c.wrongState(op, AwaitingResponse)
	}
	c.state = ReadingBody
	if w == nil {
		c.body = bufio.NewReaderSize(c.conn, chunkSize)
		return 0, nil
	}
	buf := make([]byte, chunkSize)
	for {
		m, rerr := c.conn.Read(buf)
		if m > 0 {
			if _, werr := w.Write(buf[:m]); werr != nil {
				return n, fetcherr.Errorf(fetcherr.IO, op, "relay: %w", werr)
			}
			n += int64(m)
		}
		switch {
		case rerr == io.EOF:
			c.log.Debug("response relayed", zap.Int64("bytes", n))
			c.state = Done
			return n, nil
		case rerr != nil:
			return n, c.ioErr(op, rerr)
		}
	}
}

// Status would return the response's status code and status line.
// Because Response never parses the stream, there is never a status to report:
// in ReadingBody and Done it always returns ErrStatusUnavailable, and before that a ProtocolState error.
// Conn has no status code or status line fields on purpose; there is nothing that could fill them.
func (c *Conn) Status() (code int, line string, err error) {
	if c.state < ReadingBody {
		return 0, "", c.wrongState("httpconn.Status", ReadingBody)
	}
	return 0, "", ErrStatusUnavailable
}

// ReadByte returns the next byte of the response stream. It's valid only in ReadingBody after Response(nil).
// At the end of the stream it moves to Done and returns io.EOF, as does every call after that.
func (c *Conn) ReadByte() (byte, error) {
	const op = "httpconn.ReadByte"
	if err := c.readable(op); err != nil {
		return 0, err
	}
	b, err := c.body.ReadByte()
	return b, c.readErr(op, err)
}

// Read reads the response stream as an io.Reader, with the same rules as ReadByte.
func (c *Conn) Read(p []byte) (int, error) {
	const op = "httpconn.Read"
	if err := c.readable(op); err != nil {
		return 0, err
	}
	n, err := c.body.Read(p)
	return n, c.readErr(op, err)
}

func (c *Conn) readable(op string) error {
	switch {
	case c.closed:
		return fetcherr.New(fetcherr.IO, op, ErrClosed)
	case c.state == Done:
		return io.EOF
	case c.state != ReadingBody:
		return c.wrongState(op, ReadingBody)
	case c.body == nil: // Response(w) is relaying; the stream isn't ours.
		return fetcherr.Errorf(fetcherr.ProtocolState, op, "response is being relayed by Response")
	}
	return nil
}

func (c *Conn) readErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case err == io.EOF:
		c.state = Done
		return io.EOF
	default:
		return c.ioErr(op, err)
	}
}

// Close shuts down both directions of the socket and releases it, along with any buffered response.
// Call it exactly once; later calls return ErrClosed.
func (c *Conn) Close() error {
	if c.closed {
		return fetcherr.New(fetcherr.IO, "httpconn.Close", ErrClosed)
	}
	c.closed = true
	c.stopCancel()
	// shutdown errors (e.g, the peer already hung up) don't matter: we're about to close anyways.
	_ = c.conn.CloseRead()
	_ = c.conn.CloseWrite()
	c.body = nil
	if err := c.conn.Close(); err != nil {
		return fetcherr.New(fetcherr.IO, "httpconn.Close", err)
	}
	c.log.Debug("closed", zap.Stringer("state", c.state))
	return nil
}
