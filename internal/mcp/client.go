// Package mcp implements the client side of the MCP tool protocol: one
// persistent WebSocket connection per server, capability discovery, and
// request/reply correlation that tolerates out-of-order responses.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

const clientName = "deepin-term-agent"
const clientVersion = "0.1.0"

// WireConn is the minimal transport surface the client needs. It matches
// *websocket.Conn so the production dialer needs no adapter.
type WireConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Dialer establishes the transport connection to a server endpoint.
type Dialer interface {
	DialContext(ctx context.Context, endpoint string) (WireConn, error)
}

type wsDialer struct{}

func (wsDialer) DialContext(ctx context.Context, endpoint string) (WireConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Listener receives tool-set changes from a connection. The registry
// implements it; calls arrive serialized per connection.
type Listener interface {
	// ToolsDiscovered merges the server's advertised tools into the registry.
	ToolsDiscovered(serverID string, descs []tool.Descriptor)
	// ToolsRevoked removes every tool owned by the server.
	ToolsRevoked(serverID string)
}

type outcome struct {
	env *envelope
	err error
}

// Conn owns one logical connection to a remote tool server. All state
// transitions are serialized by the connection's own mutex; no two
// transitions for the same connection run concurrently.
type Conn struct {
	ID       string
	Endpoint string

	cfg      config.MCPConfig
	logger   *slog.Logger
	dialer   Dialer
	listener Listener

	mu       sync.Mutex
	state    State
	enabled  bool
	ws       WireConn
	gen      int // connection generation; stale read loops see a newer gen and exit
	pending  map[string]chan outcome
	tools    []tool.Descriptor
	attempts int
	lastRecv time.Time
}

// NewConn creates a connection seeded from configuration. The connection
// starts DISCONNECTED; call Connect to bring it up.
func NewConn(id, endpoint string, cfg config.MCPConfig, logger *slog.Logger, listener Listener) *Conn {
	return NewConnWithDialer(id, endpoint, cfg, logger, listener, wsDialer{})
}

// NewConnWithDialer creates a connection with a custom transport dialer
// (for testing).
func NewConnWithDialer(id, endpoint string, cfg config.MCPConfig, logger *slog.Logger, listener Listener, dialer Dialer) *Conn {
	return &Conn{
		ID:       id,
		Endpoint: endpoint,
		cfg:      cfg,
		logger:   logger.With("server", id),
		dialer:   dialer,
		listener: listener,
		state:    StateDisconnected,
		pending:  map[string]chan outcome{},
	}
}

// State returns the current connection state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tools returns the descriptors discovered from this server.
func (c *Conn) Tools() []tool.Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tool.Descriptor, len(c.tools))
	copy(out, c.tools)
	return out
}

// Connect enables the connection and performs the transport dial plus the
// initialize/tools-list handshake. A handshake failure lands back in
// DISCONNECTED and is reported, not retried.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return fmt.Errorf("server %s: connect from state %s", c.ID, c.state)
	}
	c.enabled = true
	c.mu.Unlock()

	return c.connectOnce(ctx)
}

// connectOnce runs DISCONNECTED/DEGRADED -> CONNECTING -> HANDSHAKING ->
// READY. On any failure the state is left where the caller can decide to
// retry (reconnect loop) or report (initial connect). Every transition
// rechecks enabled and the attempt generation under the mutex: a Disable
// landing while the dial or handshake is in flight must win, not be undone
// by a late success.
func (c *Conn) connectOnce(ctx context.Context) error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return fmt.Errorf("server %s: disabled", c.ID)
	}
	attemptGen := c.gen
	c.state = StateConnecting
	c.mu.Unlock()

	ws, err := c.dialer.DialContext(ctx, c.Endpoint)
	if err != nil {
		c.mu.Lock()
		if c.enabled && c.gen == attemptGen {
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		return fmt.Errorf("server %s: dial %s: %w", c.ID, c.Endpoint, err)
	}

	c.mu.Lock()
	if !c.enabled || c.gen != attemptGen {
		c.mu.Unlock()
		_ = ws.Close()
		return fmt.Errorf("server %s: disabled during dial", c.ID)
	}
	c.ws = ws
	c.gen++
	gen := c.gen
	c.state = StateHandshaking
	c.mu.Unlock()

	go c.readLoop(ws, gen)

	hctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.HandshakeTimeoutSeconds)*time.Second)
	defer cancel()

	if _, err := c.request(hctx, ws, methodInitialize, initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      clientInfo{Name: clientName, Version: clientVersion},
	}); err != nil {
		c.teardown(gen)
		return fmt.Errorf("server %s: handshake: %w", c.ID, err)
	}

	raw, err := c.request(hctx, ws, methodToolsList, map[string]any{})
	if err != nil {
		c.teardown(gen)
		return fmt.Errorf("server %s: tool discovery: %w", c.ID, err)
	}

	var list toolListResult
	if err := json.Unmarshal(raw, &list); err != nil {
		c.teardown(gen)
		return fmt.Errorf("server %s: tool discovery: malformed tool list: %w", c.ID, err)
	}

	descs := make([]tool.Descriptor, 0, len(list.Tools))
	for _, info := range list.Tools {
		desc, err := parseDescriptor(c.ID, info)
		if err != nil {
			c.logger.Warn("skipping advertised tool", "err", err)
			continue
		}
		descs = append(descs, desc)
	}

	c.mu.Lock()
	if !c.enabled || c.gen != gen {
		// Disable won the race; it already closed the wire and failed
		// pending requests.
		c.mu.Unlock()
		return fmt.Errorf("server %s: disabled during handshake", c.ID)
	}
	hadTools := len(c.tools) > 0
	c.tools = descs
	c.state = StateReady
	c.attempts = 0
	c.mu.Unlock()

	// Swap the registered tool set when reconnecting; first connect has
	// nothing to revoke.
	if hadTools {
		c.listener.ToolsRevoked(c.ID)
	}
	c.listener.ToolsDiscovered(c.ID, descs)

	c.logger.Info("connected", "tools", len(descs))
	return nil
}

// teardown aborts a failed handshake: close the transport, fail pending
// requests, and return to DISCONNECTED.
func (c *Conn) teardown(gen int) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	ws := c.ws
	c.ws = nil
	c.gen++
	c.state = StateDisconnected
	c.failPendingLocked(tool.Kindf(tool.FailUnavailable, "server %s disconnected", c.ID))
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close()
	}
}

// Disable tears the connection down from any state and revokes its tools
// atomically with the transition. The connection stays down until Connect is
// called again.
func (c *Conn) Disable() {
	c.mu.Lock()
	c.enabled = false
	ws := c.ws
	c.ws = nil
	c.gen++
	c.state = StateDisconnected
	hadTools := len(c.tools) > 0
	c.tools = nil
	c.failPendingLocked(tool.Kindf(tool.FailUnavailable, "server %s disabled", c.ID))
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
	if hadTools {
		c.listener.ToolsRevoked(c.ID)
	}
}

// Call executes a remote tool. In any state but READY it fails immediately
// with UNAVAILABLE, without touching the network. A call that times out while
// the transport has gone silent degrades the connection; a slow call on an
// otherwise live connection degrades only itself.
func (c *Conn) Call(ctx context.Context, toolName string, args map[string]any) (map[string]any, error) {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		return nil, tool.Kindf(tool.FailUnavailable, "server %s is %s", c.ID, state)
	}
	ws := c.ws
	c.mu.Unlock()

	timeout := time.Duration(c.cfg.CallTimeoutSeconds) * time.Second
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.request(cctx, ws, methodToolsCall, callParams{Name: toolName, Arguments: args})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			// The caller gave up first; that says nothing about the
			// transport, so the connection stays as it is.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, tool.Kindf(tool.FailTimeout, "call to %s abandoned at caller deadline", toolName)
			}
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			if c.silentSince(start) {
				c.degrade()
			}
			return nil, tool.Kindf(tool.FailTimeout, "call to %s timed out after %s", toolName, timeout)
		}
		return nil, err
	}

	return decodePayload(raw)
}

// request sends one envelope and waits for its correlated reply.
func (c *Conn) request(ctx context.Context, ws WireConn, method string, params any) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan outcome, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := ws.WriteJSON(envelope{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return nil, tool.Kindf(tool.FailUnavailable, "server %s: send failed", c.ID)
	}

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, out.err
		}
		if out.env.Error != nil {
			// Forward only the server's message, never the raw error payload.
			return nil, tool.Kindf(tool.FailInternal, "server %s: %s", c.ID, out.env.Error.Message)
		}
		return out.env.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readLoop delivers replies to their pending requests, matching by id rather
// than send order. A transport error on the active generation degrades the
// connection.
func (c *Conn) readLoop(ws WireConn, gen int) {
	for {
		var env envelope
		if err := ws.ReadJSON(&env); err != nil {
			c.handleTransportError(gen, err)
			return
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		c.lastRecv = time.Now()
		ch, ok := c.pending[env.ID]
		if ok {
			delete(c.pending, env.ID)
		}
		c.mu.Unlock()

		if ok {
			ch <- outcome{env: &env}
		} else if env.ID != "" {
			c.logger.Debug("reply for unknown call id", "id", env.ID)
		}
	}
}

func (c *Conn) handleTransportError(gen int, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateReady:
		c.logger.Warn("transport error, degrading", "err", err)
		c.degrade()
	case StateHandshaking:
		c.mu.Lock()
		c.failPendingLocked(tool.Kindf(tool.FailUnavailable, "server %s: connection lost", c.ID))
		c.mu.Unlock()
	default:
		// Already torn down by Disable/teardown.
	}
}

// degrade moves READY -> DEGRADED, fails in-flight calls, and starts the
// bounded reconnect loop. Discovered tools stay registered so callers see a
// fast UNAVAILABLE instead of UNKNOWN_TOOL.
func (c *Conn) degrade() {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return
	}
	ws := c.ws
	c.ws = nil
	c.gen++
	c.state = StateDegraded
	c.failPendingLocked(tool.Kindf(tool.FailUnavailable, "server %s degraded", c.ID))
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
	go c.reconnectLoop()
}

// reconnectLoop retries with exponential backoff until READY, the attempt cap
// is exhausted, or the connection is disabled. Exhaustion revokes the
// server's tools and parks the connection in DISCONNECTED.
func (c *Conn) reconnectLoop() {
	for {
		c.mu.Lock()
		if !c.enabled || c.state != StateDegraded {
			c.mu.Unlock()
			return
		}
		if c.attempts >= c.cfg.MaxReconnectAttempts {
			c.state = StateDisconnected
			hadTools := len(c.tools) > 0
			c.tools = nil
			c.mu.Unlock()
			c.logger.Warn("reconnect attempts exhausted")
			if hadTools {
				c.listener.ToolsRevoked(c.ID)
			}
			return
		}
		attempt := c.attempts
		c.attempts++
		c.mu.Unlock()

		time.Sleep(c.backoff(attempt))

		c.mu.Lock()
		if !c.enabled || c.state != StateDegraded {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if err := c.connectOnce(context.Background()); err != nil {
			c.logger.Debug("reconnect attempt failed", "attempt", attempt+1, "err", err)
			c.mu.Lock()
			// connectOnce leaves DISCONNECTED on failure; go back to DEGRADED
			// so the next attempt (and fast-failing calls) see a recovering
			// connection.
			if c.enabled && c.state == StateDisconnected {
				c.state = StateDegraded
			}
			c.mu.Unlock()
			continue
		}
		return
	}
}

func (c *Conn) backoff(attempt int) time.Duration {
	base := time.Duration(c.cfg.ReconnectBaseDelayMs) * time.Millisecond
	max := time.Duration(c.cfg.ReconnectMaxDelayMs) * time.Millisecond
	delay := base << attempt
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}

// silentSince reports whether nothing at all has arrived from the server
// since t, distinguishing a dead transport from one slow call.
func (c *Conn) silentSince(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRecv.Before(t)
}

// failPendingLocked resolves every in-flight request with err. Caller holds
// c.mu.
func (c *Conn) failPendingLocked(err error) {
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- outcome{err: err}
	}
}

// decodePayload normalizes a reply result into a payload map. Non-object
// results are wrapped so every tool call resolves to the same shape.
func decodePayload(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap, nil
	}
	var asAny any
	if err := json.Unmarshal(raw, &asAny); err != nil {
		return nil, tool.Kindf(tool.FailInternal, "undecodable result payload")
	}
	return map[string]any{"result": asAny}, nil
}
