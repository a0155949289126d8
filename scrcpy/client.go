package scrcpy

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"mirrorctl/adb"
)

// Client is what the session controller drives. Events are delivered in
// arrival order on a single channel; the channel is closed after a
// ClosedEvent or after Close returns.
type Client interface {
	Start(ctx context.Context) error
	Close() error
	Events() <-chan Event

	InjectTouch(e TouchEvent) error
	InjectKeycode(e KeyEvent) error
	InjectText(text string) error
	InjectScroll(e ScrollEvent) error
	BackOrScreenOn() error
}

// tcpClient talks to a server process over an adb tunnel: one video socket
// and one control socket.
type tcpClient struct {
	opts Options
	adb  *adb.Client

	mu          sync.Mutex
	videoConn   net.Conn
	controlConn net.Conn
	listener    net.Listener
	closing     bool

	events    chan Event
	closeOnce sync.Once
}

// New creates a client for one session. The server binary must already be
// pushed to opts.ServerPath.
func New(opts Options, adbClient *adb.Client) Client {
	return &tcpClient{
		opts:   opts,
		adb:    adbClient,
		events: make(chan Event, 32),
	}
}

func (c *tcpClient) Events() <-chan Event { return c.events }

// Start sets up the tunnel, launches the remote process and completes the
// stream handshake. On return the video and control readers are running.
func (c *tcpClient) Start(ctx context.Context) error {
	port := fmt.Sprintf("tcp:%d", c.opts.LocalPort)
	addr := fmt.Sprintf("127.0.0.1:%d", c.opts.LocalPort)

	var conns []net.Conn
	var err error
	if c.opts.ForwardTunnel {
		if err = c.adb.Forward(ctx, port, c.opts.SocketName()); err != nil {
			return err
		}
		c.adb.ShellStart(c.opts.ServerCommand())
		conns, err = dialTunnel(ctx, addr, 2)
	} else {
		var listener net.Listener
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.listener = listener
		c.mu.Unlock()
		if err = c.adb.Reverse(ctx, c.opts.SocketName(), port); err != nil {
			listener.Close()
			return err
		}
		c.adb.ShellStart(c.opts.ServerCommand())
		conns, err = acceptTunnel(ctx, listener, 2)
		listener.Close()
	}
	if err != nil {
		c.teardownTunnel()
		return err
	}

	c.mu.Lock()
	c.videoConn, c.controlConn = conns[0], conns[1]
	c.mu.Unlock()

	name, meta, err := readStreamHeader(conns[0], c.opts.ForwardTunnel)
	if err != nil {
		c.Close()
		return fmt.Errorf("stream handshake: %w", err)
	}
	log.Printf("scrcpy: connected to %q, %s %dx%d", name, meta.Codec, meta.Width, meta.Height)

	c.events <- GeometryEvent{Width: meta.Width, Height: meta.Height}
	go c.readVideo(conns[0])
	go c.readControl(conns[1])
	return nil
}

// Close releases the tunnel and both sockets. Safe to call more than once
// and regardless of how far Start got.
func (c *tcpClient) Close() error {
	c.mu.Lock()
	c.closing = true
	video, control, listener := c.videoConn, c.controlConn, c.listener
	c.videoConn, c.controlConn, c.listener = nil, nil, nil
	c.mu.Unlock()

	if video != nil {
		video.Close()
	}
	if control != nil {
		control.Close()
	}
	if listener != nil {
		listener.Close()
	}
	c.teardownTunnel()
	c.closeOnce.Do(func() { close(c.events) })
	return nil
}

func (c *tcpClient) teardownTunnel() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if c.opts.ForwardTunnel {
		c.adb.ForwardRemove(ctx, fmt.Sprintf("tcp:%d", c.opts.LocalPort))
	} else {
		c.adb.ReverseRemove(ctx, c.opts.SocketName())
	}
	c.adb.Stop()
}

// emitClosed reports unsolicited closure exactly once. A solicited Close
// must not surface as a device disconnect.
func (c *tcpClient) emitClosed(reason string) {
	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()
	c.closeOnce.Do(func() {
		if !closing {
			// The consumer may already be gone; never let a stuck send
			// delay closing the channel, which is the signal consumers
			// actually wait on.
			select {
			case c.events <- ClosedEvent{Reason: reason}:
			default:
				log.Printf("scrcpy: event buffer full, dropping close notification (%s)", reason)
			}
		}
		close(c.events)
	})
}

func (c *tcpClient) control() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlConn
}

// acceptTunnel collects n device-initiated connections (reverse tunnel).
func acceptTunnel(ctx context.Context, listener net.Listener, n int) ([]net.Conn, error) {
	type result struct {
		conns []net.Conn
		err   error
	}
	done := make(chan result, 1)
	go func() {
		conns := make([]net.Conn, 0, n)
		for len(conns) < n {
			conn, err := listener.Accept()
			if err != nil {
				for _, c := range conns {
					c.Close()
				}
				done <- result{nil, err}
				return
			}
			conns = append(conns, conn)
		}
		done <- result{conns, nil}
	}()
	select {
	case r := <-done:
		return r.conns, r.err
	case <-ctx.Done():
		listener.Close()
		return nil, ctx.Err()
	}
}

// dialTunnel connects n times through an adb forward. The remote socket may
// not exist yet while the server is still starting, so dial retries briefly.
func dialTunnel(ctx context.Context, addr string, n int) ([]net.Conn, error) {
	conns := make([]net.Conn, 0, n)
	deadline := time.Now().Add(10 * time.Second)
	for len(conns) < n {
		if err := ctx.Err(); err != nil {
			closeAll(conns)
			return nil, err
		}
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			if time.Now().After(deadline) {
				closeAll(conns)
				return nil, fmt.Errorf("dial %s: %w", addr, err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

func closeAll(conns []net.Conn) {
	for _, c := range conns {
		c.Close()
	}
}
