package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rahul/agentdesk/internal/store"
	"github.com/rs/zerolog/log"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"seconds": func(d time.Duration) string { return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) },
}).ParseFS(templateFS, "templates/index.html"))

// Desk is what the web server needs from the agent desk.
type Desk interface {
	Process(ctx context.Context, mode agent.Mode, query string) (*agent.Outcome, error)
	RecentRuns(limit int) ([]store.Run, error)
	ClearHistory() error
}

// ExampleGroup is one block of clickable example queries on the index page.
type ExampleGroup struct {
	Title   string
	Queries []string
}

var Examples = []ExampleGroup{
	{"🔍 Research + Analysis", []string{
		"What is machine learning and calculate 10 + 5?",
		"Research artificial intelligence and find average of 1,2,3,4,5",
		"Tell me about climate change and calculate 100 / 4",
	}},
	{"📊 Analysis + Writing", []string{
		"Calculate 15 * 25 and write a technical summary",
		"What is 50 / 2 and create a report about it?",
		"Find sum of 10,20,30 and generate creative content",
	}},
	{"✍️ Research + Writing", []string{
		"Research Python programming and write a summary",
		"What is blockchain and create an informative guide?",
		"Tell me about quantum computing and generate documentation",
	}},
	{"🧮 Simple Math", []string{
		"What is 5 + 3?",
		"Calculate 100 * 2",
		"How are you?",
	}},
}

const (
	indexHistorySize   = 5
	defaultHistorySize = 20
)

// WebServer is the HTTP surface: an HTML form plus a small JSON API.
type WebServer struct {
	desk       Desk
	backend    bool
	httpServer *http.Server
	startTime  time.Time
}

type QueryRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HistoryResponse struct {
	Runs []store.Run `json:"runs"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

type StatusResponse struct {
	observability.StatusSnapshot
	BackendConfigured bool `json:"backend_configured"`
}

type indexPage struct {
	Examples []ExampleGroup
	History  []store.Run
	Query    string
	Mode     agent.Mode
	Outcome  *agent.Outcome
	Error    string
}

// NewWebServer wires the routes. backend reports whether a completion backend
// is configured and is only shown in the status endpoint.
func NewWebServer(addr string, desk Desk, backend bool) *WebServer {
	s := &WebServer{
		desk:      desk,
		backend:   backend,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/api/v1/query", s.queryHandler)
	mux.HandleFunc("/api/v1/history", s.historyHandler)
	mux.HandleFunc("/api/v1/status", s.statusHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      countRequests(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *WebServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("web server starting")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *WebServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page := indexPage{Examples: Examples, Mode: agent.ModeMulti}

	switch r.Method {
	case http.MethodGet:
		page.Query = r.URL.Query().Get("q")
	case http.MethodPost:
		page.Query = r.FormValue("query")
		mode, err := agent.ParseMode(r.FormValue("mode"))
		if err != nil {
			page.Error = err.Error()
			break
		}
		page.Mode = mode
		out, err := s.desk.Process(r.Context(), mode, page.Query)
		if errors.Is(err, agent.ErrEmptyQuery) {
			page.Error = "Please enter a query."
		} else if err != nil {
			page.Error = err.Error()
		}
		page.Outcome = out
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runs, err := s.desk.RecentRuns(indexHistorySize)
	if err != nil {
		log.Error().Err(err).Msg("failed to load history")
	}
	page.History = runs

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		log.Error().Err(err).Msg("failed to render index")
	}
}

func (s *WebServer) queryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	mode, err := agent.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	out, err := s.desk.Process(r.Context(), mode, req.Query)
	if errors.Is(err, agent.ErrEmptyQuery) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *WebServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := defaultHistorySize
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
				return
			}
			limit = n
		}
		runs, err := s.desk.RecentRuns(limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		if runs == nil {
			runs = []store.Run{}
		}
		writeJSON(w, http.StatusOK, HistoryResponse{Runs: runs})
	case http.MethodDelete:
		if err := s.desk.ClearHistory(); err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *WebServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		StatusSnapshot:    observability.GetStatus(),
		BackendConfigured: s.backend,
	})
}

func (s *WebServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.RequestCount.WithLabelValues(r.Method, endpointLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
	})
}

// endpointLabel keeps metric cardinality bounded.
func endpointLabel(path string) string {
	switch path {
	case "/", "/api/v1/query", "/api/v1/history", "/api/v1/status", "/health", "/metrics":
		return path
	}
	return "other"
}
