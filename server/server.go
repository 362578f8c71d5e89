package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/spektr-org/olistlens/engine"
	"github.com/spektr-org/olistlens/facts"
	"github.com/spektr-org/olistlens/session"
)

// maxBody caps event payloads.
const maxBody = 1 << 20

// Server is the JSON shell around one session. Triggers are serialized.
type Server struct {
	mu   sync.Mutex
	sess *session.Session
	mux  *http.ServeMux
}

// New creates a new Server.
func New(sess *session.Session) *Server {
	s := &Server{sess: sess, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("POST /api/view", s.handleSetView)
	s.mux.HandleFunc("GET /api/meta", s.handleMeta)
	s.mux.HandleFunc("GET /api/table/{panel}", s.handleTable)
	s.mux.HandleFunc("GET /api/chart/{panel}", s.handleChart)
	s.mux.HandleFunc("GET /api/text", s.handleText)
	s.mux.HandleFunc("POST /api/filter", s.handleFilter)
	s.mux.HandleFunc("POST /api/rank", s.handleRank)
	s.mux.HandleFunc("POST /api/drill", s.handleDrill)
	s.mux.HandleFunc("POST /api/preset/{name}", s.handlePreset)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
}

// ── Requests ─────────────────────────────────────────────────────────────────

type viewRequest struct {
	View string `json:"view"`
}

// rankRequest accepts n as a number or a string; bounding happens in the
// session.
type rankRequest struct {
	Panel string          `json:"panel"`
	Mode  string          `json:"mode"`
	N     json.RawMessage `json:"n"`
}

type metaResponse struct {
	Meta     facts.Metadata    `json:"meta"`
	Counts   facts.TableCounts `json:"counts"`
	Coverage facts.Coverage    `json:"coverage"`
	Presets  []string          `json:"presets"`
	Panels   []string          `json:"panels"`
	Charts   []string          `json:"charts"`
	Metrics  []string          `json:"metrics"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vm := s.sess.View()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	vm := s.sess.SetView(r.Context(), req.View)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	store := s.sess.Store()
	writeJSON(w, http.StatusOK, metaResponse{
		Meta:     store.Meta(),
		Counts:   store.Counts(),
		Coverage: store.Coverage(),
		Presets:  session.Presets,
		Panels:   engine.TablePanels,
		Charts:   engine.ChartPanels,
		Metrics:  engine.MetricKeys(),
	})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vm := s.sess.View()
	s.mu.Unlock()

	table, err := engine.BuildTable(vm, r.PathValue("panel"), engine.NewFormatter(locale(r), r.URL.Query().Get("currency")))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vm := s.sess.View()
	s.mu.Unlock()

	panel := r.PathValue("panel")
	chart, err := engine.BuildChart(vm, panel, r.URL.Query().Get("metric"))
	if errors.Is(err, engine.ErrUnknownPanel) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vm := s.sess.View()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, engine.BuildText(vm, engine.NewFormatter(locale(r), r.URL.Query().Get("currency"))))
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var in engine.FilterInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	vm := s.sess.ApplyFilter(r.Context(), in)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decode(w, r, &req) {
		return
	}
	n := strings.Trim(strings.TrimSpace(string(req.N)), `"`)
	s.mu.Lock()
	vm := s.sess.SetRanking(r.Context(), req.Panel, req.Mode, n)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleDrill(w http.ResponseWriter, r *http.Request) {
	var sel engine.Selection
	if !decode(w, r, &sel) {
		return
	}
	s.mu.Lock()
	vm := s.sess.Drill(r.Context(), sel)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vm, err := s.sess.Preset(r.Context(), r.PathValue("name"))
	s.mu.Unlock()
	if errors.Is(err, session.ErrUnknownPreset) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	vm := s.sess.Reset(r.Context())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, vm)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ olistlens: writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// locale picks the first Accept-Language tag, English by default.
func locale(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	return tags[0]
}

// Serve starts the HTTP server on localhost.
func Serve(sess *session.Session, port int) error {
	srv := New(sess)

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
