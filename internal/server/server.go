package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/starfinder-mcp/internal/config"
	"github.com/ironsheep/starfinder-mcp/internal/controller"
	"github.com/ironsheep/starfinder-mcp/internal/imaging"
	"github.com/ironsheep/starfinder-mcp/internal/starfinder"
)

// Version is reported in the initialize handshake.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	cache    *imaging.ImageCache
	renderer *starfinder.Renderer

	mu       sync.Mutex
	sessions map[string]*controller.Session
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. A nil cfg uses the defaults.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		cfg:      cfg,
		cache:    imaging.NewImageCache(cfg.Unit),
		renderer: starfinder.NewRenderer(cfg.RendererOptions()),
		sessions: make(map[string]*controller.Session),
	}
}

// Cache returns the image cache shared by all tools.
func (s *Server) Cache() *imaging.ImageCache {
	return s.cache
}

// Session returns the interactive session for path, attaching controls on
// first use. Later calls return the same session.
func (s *Server) Session(path string) (*controller.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[path]; ok {
		return sess, nil
	}

	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	sess, err := controller.NewSession(s.cfg.Bindings(img), s.renderer)
	if err != nil {
		return nil, err
	}
	s.sessions[path] = sess
	return sess, nil
}

// reload drops the cached image for path and reads the file again. A
// session already open on path keeps its slider positions and is rebound to
// the new image, so every surface sharing it sees the fresh data.
func (s *Server) reload(path, unit string) error {
	s.cache.Evict(path)
	img, err := s.cache.LoadWithUnit(path, unit)
	if err != nil {
		return err
	}
	sess, ok := s.existingSession(path)
	if !ok {
		return nil
	}
	if _, err := sess.Reload(img); err != nil {
		return fmt.Errorf("re-render %s: %w", path, err)
	}
	log.Printf("Reloaded %s into its open session", path)
	return nil
}

// existingSession returns the session for path without creating one.
func (s *Server) existingSession(path string) (*controller.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[path]
	return sess, ok
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve processes newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Rendered frames come back as base64 PNG, so allow large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	if s.cfg.Debug() {
		log.Printf("Request %v: %s", req.ID, req.Method)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "starfinder-mcp",
				"version": Version,
			},
		},
	}
}
