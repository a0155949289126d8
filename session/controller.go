// Package session drives the lifecycle of one mirroring session: deploy the
// server binary, negotiate an encoder, start the stream, feed frames to the
// decoder binding and tear everything down again.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"mirrorctl/decoder"
	"mirrorctl/progress"
	"mirrorctl/scrcpy"
)

// Controller is the session state machine. At most one session is live at a
// time; Start from any state but Idle is refused. All exported methods are
// safe for concurrent use.
type Controller struct {
	transport Transport
	fetcher   Fetcher
	deployer  Deployer
	callbacks Callbacks

	mu               sync.Mutex
	state            State
	cfg              Config
	slot             *decoder.Slot
	cur              *live
	effectiveEncoder string
	download         *progress.Tracker
	upload           *progress.Tracker
}

// live is the per-session resource set, released exactly once on teardown.
type live struct {
	ctx    context.Context
	cancel context.CancelFunc

	client  scrcpy.Client
	binding *decoder.Binding

	streamW, streamH uint32

	teardownOnce sync.Once
}

func New(transport Transport, fetcher Fetcher, deployer Deployer, callbacks Callbacks) *Controller {
	return &Controller{
		transport: transport,
		fetcher:   fetcher,
		deployer:  deployer,
		callbacks: callbacks,
		download:  progress.NewTracker(0),
		upload:    progress.NewTracker(0),
	}
}

// Configure replaces the session configuration. Only valid while Idle;
// a running session keeps the snapshot it started with.
func (c *Controller) Configure(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return &InvalidStateError{Op: "configure", State: c.state}
	}
	c.cfg = cfg
	return nil
}

func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// SetDecoderFactory selects the decoder implementation for the next
// session. Switching to a different kind allocates a fresh surface; the
// previous one is abandoned because its rendering-context type is fixed.
func (c *Controller) SetDecoderFactory(factory decoder.Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return &InvalidStateError{Op: "set decoder", State: c.state}
	}
	if c.slot == nil {
		slot, err := decoder.NewSlot(factory)
		if err != nil {
			return &DecoderUnavailableError{Err: err}
		}
		c.slot = slot
		return nil
	}
	if err := c.slot.SetFactory(factory); err != nil {
		return &DecoderUnavailableError{Err: err}
	}
	return nil
}

// DecoderSurface exposes the surface the next session will render to, so
// the presentation layer can attach viewers to it. Nil until a decoder
// factory has been set.
func (c *Controller) DecoderSurface() decoder.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slot == nil {
		return nil
	}
	return c.slot.Surface()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StreamSize reports the cropped video size. It is only defined while
// Running and after the stream reported its geometry; input must be dropped
// until it is.
func (c *Controller) StreamSize() (width, height uint32, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning || c.cur == nil || c.cur.streamW == 0 || c.cur.streamH == 0 {
		return 0, 0, false
	}
	return c.cur.streamW, c.cur.streamH, true
}

// EffectiveEncoder is the encoder the last negotiation actually selected,
// which may differ from the requested one.
func (c *Controller) EffectiveEncoder() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectiveEncoder
}

func (c *Controller) DownloadProgress() progress.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.download.Snapshot()
}

func (c *Controller) UploadProgress() progress.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upload.Snapshot()
}

// Start runs the full deployment and start sequence. Any failure unwinds
// every partially acquired resource and returns the controller to Idle
// before the error is returned; partial state is never observable.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return &InvalidStateError{Op: "start", State: c.state}
	}
	if c.slot == nil {
		c.mu.Unlock()
		return &DecoderUnavailableError{}
	}
	cfg := c.cfg // immutable snapshot for the whole sequence
	sctx, cancel := context.WithCancel(ctx)
	s := &live{ctx: sctx, cancel: cancel}
	c.cur = s
	c.download = progress.NewTracker(0)
	c.upload = progress.NewTracker(0)
	c.mu.Unlock()

	if err := c.runStart(sctx, s, cfg); err != nil {
		c.teardown(s, "")
		return err
	}
	return nil
}

func (c *Controller) runStart(ctx context.Context, s *live, cfg Config) error {
	c.setState(StateFetchingServer)
	data, err := c.fetcher.Fetch(ctx, c.downloadProgress)
	if err != nil {
		return &DeploymentError{Stage: "fetch", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.setState(StateDeployingServer)
	if err := c.deployer.Write(ctx, cfg.DeviceSerial, cfg.ServerRemotePath, data, c.uploadProgress); err != nil {
		return &DeploymentError{Stage: "push", Err: err}
	}

	c.setState(StateNegotiatingEncoder)
	opts := cfg.options()
	encoders, err := c.transport.GetEncoders(ctx, opts)
	if err != nil {
		return &NegotiationError{Err: err}
	}
	if len(encoders) == 0 {
		return &NegotiationError{}
	}
	effective := encoders[0]
	for _, enc := range encoders {
		if enc == cfg.Encoder {
			effective = cfg.Encoder
			break
		}
	}
	if cfg.Encoder != "" && effective != cfg.Encoder {
		log.Printf("session: encoder %q not offered by device, using %q", cfg.Encoder, effective)
		if cb := c.callbacks.OnEncoderFallback; cb != nil {
			cb(cfg.Encoder, effective)
		}
	}
	opts.Encoder = effective
	c.mu.Lock()
	c.effectiveEncoder = effective
	c.mu.Unlock()

	// The probe run consumed the binary: the server deletes itself on exit.
	// Push it again before the real start.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.deployer.Write(ctx, cfg.DeviceSerial, cfg.ServerRemotePath, data, c.uploadProgress); err != nil {
		return &DeploymentError{Stage: "push", Err: err}
	}

	c.setState(StateStarting)
	c.mu.Lock()
	slot := c.slot
	c.mu.Unlock()
	binding, err := slot.Bind()
	if err != nil {
		return &DecoderUnavailableError{Err: err}
	}
	client := c.transport.NewClient(opts)
	c.mu.Lock()
	s.binding = binding
	s.client = client
	c.mu.Unlock()

	if err := client.Start(ctx); err != nil {
		return &ProtocolError{Message: err.Error()}
	}

	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		// Stop arrived while the handshake was finishing; never surface
		// Running.
		c.mu.Unlock()
		return err
	}
	c.state = StateRunning
	c.mu.Unlock()
	c.notifyState(StateRunning)

	go c.pump(s)
	return nil
}

// Stop tears the session down and returns the controller to Idle.
// Idempotent: a second call while Stopping is a no-op. Safe while a Start
// is still in flight; the start sequence observes the cancellation and
// unwinds without completing the Running transition.
func (c *Controller) Stop() error {
	c.mu.Lock()
	s := c.cur
	state := c.state
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	if state == StateRunning || state == StateStopping {
		c.teardown(s, "")
		return nil
	}
	// Start in flight: cancel and let it unwind through its own path.
	s.cancel()
	return nil
}

// teardown releases the protocol client and the decoder binding exactly
// once, clears the stream size and returns to Idle. reason is non-empty
// only for unsolicited closure.
func (c *Controller) teardown(s *live, reason string) {
	s.teardownOnce.Do(func() {
		c.setState(StateStopping)
		s.cancel()

		c.mu.Lock()
		client, binding := s.client, s.binding
		s.client, s.binding = nil, nil
		s.streamW, s.streamH = 0, 0
		c.mu.Unlock()

		if client != nil {
			if err := client.Close(); err != nil {
				log.Printf("session: closing protocol client: %v", err)
			}
		}
		if binding != nil {
			binding.Dispose()
		}

		c.mu.Lock()
		if c.cur == s {
			c.cur = nil
		}
		c.state = StateIdle
		c.mu.Unlock()
		c.notifyState(StateIdle)

		if reason != "" {
			if cb := c.callbacks.OnClosed; cb != nil {
				cb(reason)
			}
		}
	})
}

// pump consumes the client's event stream on a single goroutine so no
// event handling is ever reentrant.
func (c *Controller) pump(s *live) {
	events := s.client.Events()
	for {
		select {
		case <-s.ctx.Done():
			c.teardown(s, "")
			return
		case ev, ok := <-events:
			if !ok {
				// The client can close its channel without a preceding
				// ClosedEvent when its buffer was backlogged; closure
				// still ends the session.
				c.teardown(s, "")
				return
			}
			if c.handleEvent(s, ev) {
				return
			}
		}
	}
}

// handleEvent dispatches one protocol event; returns true when the pump
// should exit.
func (c *Controller) handleEvent(s *live, ev scrcpy.Event) bool {
	switch e := ev.(type) {
	case scrcpy.LogEvent:
		if cb := c.callbacks.OnLog; cb != nil {
			cb(e.Level, e.Message)
		}

	case scrcpy.ErrorEvent:
		// Forwarded verbatim; not a state transition. Fatal errors are
		// followed by a ClosedEvent, which is.
		if cb := c.callbacks.OnError; cb != nil {
			cb(&ProtocolError{Message: e.Message})
		}

	case scrcpy.ClipboardEvent:
		if cb := c.callbacks.OnClipboard; cb != nil {
			cb(e.Text)
		}

	case scrcpy.ClosedEvent:
		c.teardown(s, e.Reason)
		return true

	case scrcpy.GeometryEvent:
		c.mu.Lock()
		active := c.state == StateRunning
		if active && e.Width > 0 && e.Height > 0 {
			s.streamW, s.streamH = e.Width, e.Height
		}
		binding := s.binding
		c.mu.Unlock()
		if !active || binding == nil {
			// Late geometry during teardown is discarded, never applied
			// to a half-released binding.
			return false
		}
		geo := decoder.Geometry{Width: e.Width, Height: e.Height, CodecData: e.CodecData}
		if err := binding.Reconfigure(s.ctx, geo); err != nil && !errors.Is(err, decoder.ErrDisposed) {
			c.forwardError(err)
		}
		if e.Width > 0 && e.Height > 0 {
			if cb := c.callbacks.OnGeometry; cb != nil {
				cb(e.Width, e.Height)
			}
		}

	case scrcpy.VideoPacketEvent:
		c.mu.Lock()
		active := c.state == StateRunning
		binding := s.binding
		c.mu.Unlock()
		if !active || binding == nil {
			return false
		}
		err := binding.Decode(s.ctx, e.Data)
		if err != nil && !errors.Is(err, decoder.ErrDisposed) && !errors.Is(err, decoder.ErrNotConfigured) {
			c.forwardError(err)
		}
	}
	return false
}

func (c *Controller) forwardError(err error) {
	if cb := c.callbacks.OnError; cb != nil {
		cb(err)
	}
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.notifyState(state)
}

func (c *Controller) notifyState(state State) {
	if cb := c.callbacks.OnStateChange; cb != nil {
		cb(state)
	}
}

func (c *Controller) downloadProgress(transferred, total uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.download.SetTotal(total)
	c.download.Update(transferred)
}

func (c *Controller) uploadProgress(transferred, total uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upload.SetTotal(total)
	c.upload.Update(transferred)
}

// runningClient guards the ordering rule that no input-injection call is
// issued before the session is Running.
func (c *Controller) runningClient() (scrcpy.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning || c.cur == nil || c.cur.client == nil {
		return nil, &InvalidStateError{Op: "inject", State: c.state}
	}
	return c.cur.client, nil
}

func (c *Controller) InjectTouch(e scrcpy.TouchEvent) error {
	client, err := c.runningClient()
	if err != nil {
		return err
	}
	return client.InjectTouch(e)
}

func (c *Controller) InjectKeycode(e scrcpy.KeyEvent) error {
	client, err := c.runningClient()
	if err != nil {
		return err
	}
	return client.InjectKeycode(e)
}

func (c *Controller) InjectText(text string) error {
	client, err := c.runningClient()
	if err != nil {
		return err
	}
	return client.InjectText(text)
}

func (c *Controller) InjectScroll(e scrcpy.ScrollEvent) error {
	client, err := c.runningClient()
	if err != nil {
		return err
	}
	return client.InjectScroll(e)
}

func (c *Controller) BackOrScreenOn() error {
	client, err := c.runningClient()
	if err != nil {
		return err
	}
	return client.BackOrScreenOn()
}
