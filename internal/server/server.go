// Package server exposes the risk engine over HTTP and WebSocket: one-shot
// analysis, scan history, and a streaming endpoint shaped for a live
// QR-scanning feed.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/mehrguard/mehrguard/docs/swagger" // registered OpenAPI document
	"github.com/mehrguard/mehrguard/internal/engine"
	"github.com/mehrguard/mehrguard/internal/history"
	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
)

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg      Config
	engine   *engine.Engine
	store    *history.Store
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer loads the knowledge base, builds the engine and opens the
// history store. A knowledge load failure is fatal here: the server refuses
// to start rather than serve partial verdicts.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultConfig().HistoryPath
	}
	if cfg.HistoryLimitMax <= 0 {
		cfg.HistoryLimitMax = DefaultConfig().HistoryLimitMax
	}

	kb, err := knowledge.Load(logger)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	eng, err := engine.New(cfg.EngineConfig, kb, logger)
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}
	store, err := history.Open(cfg.HistoryPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		store:  store,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/analyze", s.optionsHandler("POST"))
	r.Options("/history", s.optionsHandler("GET"))
	r.Options("/history/{scanID}", s.optionsHandler("GET"))

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/history", s.handleListHistory)
	r.Get("/history/{scanID}", s.handleGetScan)
	r.Get("/healthz", s.handleHealthz)

	r.Get("/ws/analyze", s.handleAnalyzeWS)

	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body_bytes", Value: len(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the history store.
func (s *Server) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

type analyzeRequest struct {
	URL string `json:"url"`

	// Persist controls whether the result is written to history.
	// Defaults to true.
	Persist *bool `json:"persist,omitempty"`
}

// handleAnalyze runs one analysis.
//
// @Summary Analyze a URL
// @Description Runs the offline risk pipeline over one URL string. Malformed input yields a MALICIOUS verdict, not an error.
// @Accept json
// @Produce json
// @Param request body analyzeRequest true "URL to analyze"
// @Success 200 {object} model.ScanResult
// @Failure 400 {object} map[string]string "invalid JSON body"
// @Router /analyze [post]
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res := s.engine.Analyze(body.URL)

	if body.Persist == nil || *body.Persist {
		if err := s.store.Save(r.Context(), res); err != nil {
			// analysis already succeeded; log the persistence failure and
			// still return the verdict
			s.logger.Warn("saving scan", logging.Field{Key: "error", Value: err.Error()})
		}
	}

	s.logger.Info("analyzed url",
		logging.Field{Key: "scan_id", Value: res.ID},
		logging.Field{Key: "verdict", Value: string(res.Verdict)},
		logging.Field{Key: "score", Value: res.Score})
	writeJSON(w, http.StatusOK, res)
}

// handleListHistory returns recent scans.
//
// @Summary List scan history
// @Produce json
// @Param limit query int false "maximum rows, newest first"
// @Success 200 {array} model.ScanResult
// @Router /history [get]
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > s.cfg.HistoryLimitMax {
		limit = s.cfg.HistoryLimitMax
	}

	scans, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleGetScan returns one scan by ID.
//
// @Summary Get one scan
// @Produce json
// @Param scanID path string true "scan ID"
// @Success 200 {object} model.ScanResult
// @Failure 404 {object} map[string]string
// @Router /history/{scanID} [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scanID")
	res, err := s.store.Get(r.Context(), id)
	if err != nil {
		if err == history.ErrScanNotFound {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Warn("loading scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleHealthz reports readiness.
//
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyzeWS streams verdicts over a WebSocket: the client sends
// {"url": "..."} text frames and receives one ScanResult frame per request.
// Shaped for a scanner UI feeding codes as they are decoded.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	for {
		var req analyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			// normal closure or a broken peer; either way we are done
			return
		}

		res := s.engine.Analyze(req.URL)
		if req.Persist == nil || *req.Persist {
			if err := s.store.Save(r.Context(), res); err != nil {
				s.logger.Warn("saving scan", logging.Field{Key: "error", Value: err.Error()})
			}
		}
		if err := conn.WriteJSON(res); err != nil {
			return
		}
	}
}
