package web

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"

	"github.com/ironsheep/starfinder-mcp/internal/controller"
	"github.com/ironsheep/starfinder-mcp/internal/starfinder"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// ControlMessage is a slider move sent by a viewer.
type ControlMessage struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FrameMessage is sent to viewers after every render. Renders counts the
// session's renders so viewers can drop frames that arrive out of order.
type FrameMessage struct {
	Type                string                  `json:"type"`
	Renders             int                     `json:"renders"`
	Radius              float64                 `json:"radius"`
	ThresholdMultiplier float64                 `json:"threshold_multiplier"`
	SourceCount         int                     `json:"source_count"`
	Threshold           float64                 `json:"threshold"`
	ImageBase64         string                  `json:"image_base64"`
	Controls            []controller.Descriptor `json:"controls"`
}

// ErrorMessage reports a rejected control move to the viewer that sent it.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ControlsResponse is the body of GET /api/controls.
type ControlsResponse struct {
	Controls    []controller.Descriptor `json:"controls"`
	Renders     int                     `json:"renders"`
	SourceCount int                     `json:"source_count"`
}

// Server is the HTTP viewer for one session.
type Server struct {
	session *controller.Session
	melody  *melody.Melody
	router  *mux.Router
	metrics *metrics
	debug   bool
}

// New builds the viewer routes around sess.
func New(sess *controller.Session, debug bool) *Server {
	s := &Server{
		session: sess,
		melody:  melody.New(),
		router:  mux.NewRouter(),
		metrics: newMetrics(),
		debug:   debug,
	}

	s.melody.HandleConnect(s.handleConnect)
	s.melody.HandleDisconnect(s.handleDisconnect)
	s.melody.HandleMessage(s.handleMessage)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/api/controls", s.handleControls).Methods(http.MethodGet)
	s.router.HandleFunc("/api/render.png", s.handleRenderPNG).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)
	s.router.Use(s.metrics.middleware)

	return s
}

// Handler returns the routes wrapped with panic recovery and access logging
// written to logOut.
func (s *Server) Handler(logOut io.Writer) http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(s.debug))(s.router)
	return handlers.LoggingHandler(logOut, h)
}

// Close disconnects all viewers.
func (s *Server) Close() error {
	return s.melody.Close()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	data := struct {
		Title    string
		Controls []controller.Descriptor
	}{
		Controls: snap.Controls,
	}
	if snap.Figure != nil {
		data.Title = snap.Figure.Title
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("Failed to render index page: %v", err)
	}
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	resp := ControlsResponse{
		Controls: snap.Controls,
		Renders:  snap.Renders,
	}
	if snap.Result != nil {
		resp.SourceCount = len(snap.Result.Sources)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRenderPNG serves the current frame. Query parameters named after a
// control move that control first, exactly like a slider. Every value is
// checked before any control moves.
func (s *Server) handleRenderPNG(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var moves []ControlMessage
	for _, name := range []string{controller.NameRadius, controller.NameThresholdMultiplier} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			http.Error(w, "invalid "+name+": "+raw, http.StatusBadRequest)
			return
		}
		moves = append(moves, ControlMessage{Name: name, Value: v})
	}

	var snap *controller.Snapshot
	for _, m := range moves {
		next, err := s.set(m.Name, m.Value)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		snap = next
		s.broadcastFrame(snap)
	}
	if snap == nil {
		snap = s.session.Snapshot()
	}

	if snap.PNG == nil {
		http.Error(w, "no frame rendered", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(snap.PNG)
}

// statusFor maps a failed control move to an HTTP status.
func statusFor(err error) int {
	var perr *starfinder.RenderParameterError
	if errors.As(err, &perr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if err := s.melody.HandleRequest(w, r); err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
	}
}

func (s *Server) handleConnect(ms *melody.Session) {
	s.metrics.viewers.Inc()
	if msg, ok := s.frameMessage(s.session.Snapshot()); ok {
		ms.Write(msg)
	}
}

func (s *Server) handleDisconnect(ms *melody.Session) {
	s.metrics.viewers.Dec()
}

func (s *Server) handleMessage(ms *melody.Session, data []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.writeError(ms, "invalid control message: "+err.Error())
		return
	}
	snap, err := s.set(msg.Name, msg.Value)
	if err != nil {
		s.writeError(ms, err.Error())
		return
	}
	s.broadcastFrame(snap)
}

// set moves a control and records the outcome.
func (s *Server) set(name string, v float64) (*controller.Snapshot, error) {
	snap, err := s.session.Update(name, v)
	n := 0
	if snap != nil && snap.Result != nil {
		n = len(snap.Result.Sources)
	}
	s.metrics.observeRender(n, err)
	if err != nil {
		log.Printf("Control %s=%g rejected: %v", name, v, err)
		return nil, err
	}
	if s.debug {
		log.Printf("Control %s=%g rendered %d sources", name, v, n)
	}
	return snap, nil
}

func (s *Server) writeError(ms *melody.Session, text string) {
	b, _ := json.Marshal(ErrorMessage{Type: "error", Error: text})
	ms.Write(b)
}

// frameMessage encodes one snapshot of the session.
func (s *Server) frameMessage(snap *controller.Snapshot) ([]byte, bool) {
	res := snap.Result
	if res == nil || snap.PNG == nil {
		return nil, false
	}
	b, err := json.Marshal(FrameMessage{
		Type:                "frame",
		Renders:             snap.Renders,
		Radius:              res.Radius,
		ThresholdMultiplier: res.ThresholdMultiplier,
		SourceCount:         len(res.Sources),
		Threshold:           res.Threshold,
		ImageBase64:         base64.StdEncoding.EncodeToString(snap.PNG),
		Controls:            snap.Controls,
	})
	if err != nil {
		log.Printf("Failed to encode frame: %v", err)
		return nil, false
	}
	return b, true
}

func (s *Server) broadcastFrame(snap *controller.Snapshot) {
	msg, ok := s.frameMessage(snap)
	if !ok {
		return
	}
	if err := s.melody.Broadcast(msg); err != nil {
		log.Printf("Failed to broadcast frame: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
