// Package httpapi exposes the gateway over HTTP, with Server-Sent Events for
// streamed responses.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/casualjim/llmgate"
	"github.com/casualjim/llmgate/internal/mirror"
	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/modelconfig"
	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/casualjim/llmgate/stream"
	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

// Server handles generation requests, building one gateway per request.
type Server struct {
	factory *llmgate.Factory
	mirror  *mirror.Mirror
	logger  *slog.Logger
}

var (
	// WithMirror republishes streamed envelopes.
	WithMirror = opts.ForName[Server, *mirror.Mirror]("mirror")
	// WithLogger sets the request logger.
	WithLogger = opts.ForName[Server, *slog.Logger]("logger")
)

func New(factory *llmgate.Factory, options ...opts.Option[Server]) *Server {
	s := &Server{factory: factory}
	if err := opts.Apply(s, options); err != nil {
		panic(err)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slogx.LoggerName("httpapi"))
	return s
}

// Handler returns the routes:
//
//	GET  /                 welcome message
//	GET  /health           liveness
//	POST /api/ai/generate  generation, streamed when "stream" is true
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/ai/generate", s.handleGenerate)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type generateRequest struct {
	ModelType string         `json:"model_type"`
	Params    llmgate.Params `json:"params"`
	Stream    bool           `json:"stream"`
}

type generateResponse struct {
	Response llmgate.Result `json:"response"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to llmgate"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if req.Params == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "params is required"})
		return
	}
	if req.ModelType == "" {
		req.ModelType = modelconfig.ModelTypeCompletion
	}

	if req.Stream {
		s.streamResponse(w, r, req)
		return
	}

	gw := s.factory.New()
	defer s.closeGateway(gw)

	res, err := gw.Generate(r.Context(), req.ModelType, req.Params)
	if err != nil {
		status := http.StatusInternalServerError
		if llmerr.IsClientFault(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Response: res})
}

func (s *Server) streamResponse(w http.ResponseWriter, r *http.Request, req generateRequest) {
	requestID := uuid.Must(uuid.NewV7()).String()

	gw := s.factory.New()
	defer s.closeGateway(gw)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Request-ID", requestID)
	w.WriteHeader(http.StatusOK)

	log := s.logger.With(slog.String("request_id", requestID), slog.String("model_type", req.ModelType))
	enc := stream.NewEncoder(w)
	for env := range s.mirror.Tap(requestID, gw.Stream(r.Context(), req.ModelType, req.Params)) {
		if err := enc.Encode(env); err != nil {
			log.Warn("client went away", slogx.Error(err))
			return
		}
	}
	log.Debug("stream finished")
}

func (s *Server) closeGateway(gw *llmgate.Gateway) {
	if err := gw.Close(); err != nil {
		s.logger.Warn("failed to close gateway", slogx.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
