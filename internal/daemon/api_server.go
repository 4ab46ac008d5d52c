package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"scenefilter/internal/api"
	"scenefilter/internal/config"
	"scenefilter/internal/logging"
	"scenefilter/internal/playback"
	"scenefilter/internal/reconcile"
	"scenefilter/internal/segment"
	"scenefilter/internal/services"
	"scenefilter/internal/store"
)

// maxRequestBytes bounds request bodies; import documents are the largest
// expected payload.
const maxRequestBytes = 32 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/state", srv.handleState)
	mux.HandleFunc("/api/segments", srv.handleSegments)
	mux.HandleFunc("/api/segments/local", srv.handleLocalSegments)
	mux.HandleFunc("/api/segments/remove", srv.handleRemoveSegment)
	mux.HandleFunc("/api/segments/heuristic", srv.handleHeuristicSegments)
	mux.HandleFunc("/api/localdb/export", srv.handleExport)
	mux.HandleFunc("/api/localdb/import", srv.handleImport)
	mux.HandleFunc("/api/community/refresh", srv.handleCommunityRefresh)
	mux.HandleFunc("/api/contexts", srv.handleContexts)
	mux.HandleFunc("/api/contexts/", srv.handleContext)

	srv.server = &http.Server{
		Handler:           http.MaxBytesHandler(mux, maxRequestBytes),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:        status.Running,
		PID:            status.PID,
		DatabasePath:   status.DatabasePath,
		LockFilePath:   status.LockFilePath,
		CatalogSource:  status.CatalogSource,
		ActiveContexts: status.ActiveContexts,
		ActiveDetector: status.ActiveDetector,
	})
}

func (s *apiServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp, err := api.StatePayload(r.Context(), s.daemon.deps(), r.URL.Query().Get("movie"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type segmentRequest struct {
	MovieID string      `json:"movieId"`
	Segment segment.Raw `json:"segment"`
}

func (s *apiServer) handleSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req segmentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	resp, err := api.AddUserSegment(r.Context(), s.daemon.deps(), req.MovieID, req.Segment)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type removeSegmentRequest struct {
	MovieID string `json:"movieId"`
	Index   int    `json:"index"`
}

func (s *apiServer) handleRemoveSegment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req removeSegmentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	resp, err := api.RemoveUserSegment(r.Context(), s.daemon.deps(), req.MovieID, req.Index)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type heuristicRequest struct {
	MovieID  string        `json:"movieId"`
	Segments []segment.Raw `json:"segments"`
}

func (s *apiServer) handleHeuristicSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req heuristicRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	resp, err := api.ContributeHeuristicSegments(r.Context(), s.daemon.deps(), req.MovieID, req.Segments)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleLocalSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp, err := api.LocalSegmentsForMovie(r.Context(), s.daemon.deps(), r.URL.Query().Get("movie"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload, err := api.ExportLocalDB(r.Context(), s.daemon.deps())
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	policy := reconcile.PreferExisting
	if raw := strings.TrimSpace(r.URL.Query().Get("policy")); raw != "" {
		parsed, ok := reconcile.ParsePolicy(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown merge policy %q", raw))
			return
		}
		policy = parsed
	}

	var payload store.ImportPayload
	if !s.decodeBody(w, r, &payload) {
		return
	}
	resp, err := api.ImportLocalDB(r.Context(), s.daemon.deps(), payload, policy)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleCommunityRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	source, err := api.RefreshCommunity(r.Context(), s.daemon.deps(), r.URL.Query().Get("movie"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"source": source})
}

func (s *apiServer) handleContexts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ContextResponse{ContextID: s.daemon.NewContext()})
}

// handleContext dispatches /api/contexts/{id}[/playback|/interaction].
func (s *apiServer) handleContext(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/contexts/")
	contextID, action, _ := strings.Cut(rest, "/")
	if contextID == "" {
		s.writeError(w, http.StatusNotFound, "context not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		s.daemon.DropContext(contextID)
		s.writeJSON(w, http.StatusOK, map[string]string{"contextId": contextID})
	case action == "playback" && r.Method == http.MethodPost:
		var snap playback.Snapshot
		if !s.decodeBody(w, r, &snap) {
			return
		}
		if err := s.daemon.UpdatePlayback(contextID, snap); err != nil {
			s.writeWorkflowError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"contextId": contextID})
	case action == "playback" && r.Method == http.MethodGet:
		snap, err := s.daemon.PlaybackSnapshot(contextID)
		if err != nil {
			s.writeWorkflowError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, snap)
	case action == "interaction" && r.Method == http.MethodPost:
		s.daemon.NoteInteraction(contextID)
		s.writeJSON(w, http.StatusOK, map[string]string{"contextId": contextID})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *apiServer) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(slog.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
