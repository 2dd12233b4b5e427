// Package registry owns the single tool namespace and executes calls against
// it. Builtin handlers and remote server tools share one flat name space;
// the first registration of a name wins and later collisions are rejected.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/mcp"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

type entry struct {
	desc    tool.Descriptor
	handler tool.Handler
	conn    *mcp.Conn
}

// Registry is the tool namespace plus the executor that runs calls against
// it. Safe for concurrent use.
type Registry struct {
	cfg    *config.Config
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	conns   map[string]*mcp.Conn
}

func New(cfg *config.Config, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:     cfg,
		logger:  logger.With("component", "registry"),
		entries: map[string]*entry{},
		conns:   map[string]*mcp.Conn{},
	}
}

// RegisterBuiltin adds a builtin handler to the namespace.
func (r *Registry) RegisterBuiltin(h tool.Handler) error {
	if h == nil {
		return tool.ErrNilHandler
	}
	desc := h.Descriptor()
	if desc.Name == "" {
		return tool.ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[desc.Name]; ok {
		return &tool.DuplicateToolError{Name: desc.Name, Existing: existing.desc.Source}
	}
	r.entries[desc.Name] = &entry{desc: desc, handler: h}
	return nil
}

// AddServer creates (but does not connect) the connection for a configured
// server and attaches it to the registry as the owner of its tools.
func (r *Registry) AddServer(id, endpoint string) *mcp.Conn {
	conn := mcp.NewConn(id, endpoint, r.cfg.MCP, r.logger, r)
	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()
	return conn
}

// ConnectServers brings up every enabled configured server. A server that
// fails to connect is logged and skipped; the rest still come up.
func (r *Registry) ConnectServers(ctx context.Context) {
	for id, server := range r.cfg.Servers {
		if !server.Enabled {
			continue
		}
		conn := r.AddServer(id, server.Endpoint)
		if err := conn.Connect(ctx); err != nil {
			r.logger.Warn("server unavailable", "server", id, "err", err)
		}
	}
}

// Connection returns the connection for a server id.
func (r *Registry) Connection(id string) (*mcp.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Connections returns all attached connections sorted by server id.
func (r *Registry) Connections() []*mcp.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*mcp.Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DisableServer tears down the server's connection; its tools are revoked in
// the same transition.
func (r *Registry) DisableServer(id string) error {
	conn, ok := r.Connection(id)
	if !ok {
		return fmt.Errorf("no server %q", id)
	}
	conn.Disable()
	return nil
}

// ToolsDiscovered merges a server's advertised tools into the namespace.
// Names already taken are skipped, keeping the earlier registration.
func (r *Registry) ToolsDiscovered(serverID string, descs []tool.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn := r.conns[serverID]
	for _, desc := range descs {
		if existing, ok := r.entries[desc.Name]; ok {
			r.logger.Warn("tool name collision, keeping existing",
				"tool", desc.Name, "server", serverID, "existing", existing.desc.Source.Kind)
			continue
		}
		r.entries[desc.Name] = &entry{desc: desc, conn: conn}
	}
}

// ToolsRevoked removes every tool owned by the server.
func (r *Registry) ToolsRevoked(serverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, e := range r.entries {
		if e.desc.Source == tool.Remote(serverID) {
			delete(r.entries, name)
		}
	}
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (tool.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return tool.Descriptor{}, tool.WrapKind(tool.FailUnknownTool,
			fmt.Errorf("%w: %q", tool.ErrUnknownTool, name))
	}
	return e.desc, nil
}

// List returns every registered descriptor sorted by tool name.
func (r *Registry) List() []tool.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs one call to completion and always resolves to a Result;
// failures of any kind are classified, never panicked or dropped.
func (r *Registry) Execute(ctx context.Context, req tool.CallRequest) tool.Result {
	r.mu.RLock()
	e, ok := r.entries[req.ToolName]
	r.mu.RUnlock()
	if !ok {
		return tool.Fail(req.CallID, tool.FailUnknownTool,
			fmt.Sprintf("unknown tool %q", req.ToolName))
	}

	if err := e.desc.Schema.Validate(req.Arguments); err != nil {
		return tool.Fail(req.CallID, tool.FailSchemaValidation, err.Error())
	}

	var payload map[string]any
	var err error
	if e.handler != nil {
		payload, err = r.runBuiltin(ctx, e.handler, req.Arguments)
	} else {
		// The connection enforces its own per-call timeout and state checks.
		payload, err = e.conn.Call(ctx, req.ToolName, req.Arguments)
	}
	if err != nil {
		return tool.Fail(req.CallID, classify(err), err.Error())
	}
	return tool.Success(req.CallID, payload)
}

func (r *Registry) runBuiltin(ctx context.Context, h tool.Handler, args map[string]any) (map[string]any, error) {
	timeout := time.Duration(r.cfg.Tools.CallTimeoutSeconds) * time.Second
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.Execute(cctx, args)
}

// ExecuteAll runs the requests concurrently and returns their results in the
// order the requests were issued. Each call is isolated; one failing or slow
// call never disturbs the others.
func (r *Registry) ExecuteAll(ctx context.Context, reqs []tool.CallRequest) []tool.Result {
	results := make([]tool.Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req tool.CallRequest) {
			defer wg.Done()
			results[i] = r.Execute(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

func classify(err error) tool.FailureKind {
	var kindErr *tool.KindError
	switch {
	case errors.As(err, &kindErr):
		return kindErr.Kind
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// The closed kind set has no cancellation kind; an abandoned call
		// reports as TIMEOUT rather than an internal fault.
		return tool.FailTimeout
	default:
		return tool.FailInternal
	}
}
