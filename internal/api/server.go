package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/oracle/internal/anthropic"
	"github.com/MikeSquared-Agency/oracle/internal/hermes"
	"github.com/MikeSquared-Agency/oracle/internal/ingest"
	"github.com/MikeSquared-Agency/oracle/internal/loop"
	"github.com/MikeSquared-Agency/oracle/internal/segment"
	"github.com/MikeSquared-Agency/oracle/internal/store"
	"github.com/MikeSquared-Agency/oracle/internal/turns"
)

type Server struct {
	router    *chi.Mux
	port      int
	store     *store.Store
	llm       *anthropic.Client
	processor *ingest.Processor
	hermes    ingest.Publisher
	loopCfg   loop.Config
	logger    *slog.Logger
}

func NewServer(port int, st *store.Store, llm *anthropic.Client, proc *ingest.Processor, h ingest.Publisher, loopCfg loop.Config, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		store:     st,
		llm:       llm,
		processor: proc,
		hermes:    h,
		loopCfg:   loopCfg,
		logger:    logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/oracle/status", s.status)
	router.Post("/api/v1/oracle/ask", s.ask)
	router.Post("/api/v1/oracle/ingest", s.ingest)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  "oracle",
		"status": "ready",
	})
}

type askRequest struct {
	Question string       `json:"question"`
	History  []store.Turn `json:"history,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// ask runs one isolated reasoning loop for the question. Exactly one user
// turn and one assistant turn are persisted per exchange, however the
// delivery layer later splits the answer.
func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	history := req.History
	if history == nil {
		var err error
		history, err = s.store.RecentTurns(r.Context(), 10)
		if err != nil {
			s.logger.Warn("failed to load history", "error", err)
		}
	}

	l := loop.New(s.llm, s.store, s.loopCfg, s.logger)
	answer, err := l.Answer(r.Context(), req.Question, history)
	if err != nil {
		s.logger.Error("query failed", "question", req.Question, "error", err)
		answer = loop.UserMessage(err)
	}

	if _, terr := s.store.WriteConversationTurn(r.Context(), "user", req.Question); terr != nil {
		s.logger.Error("failed to persist user turn", "error", terr)
	}
	if _, terr := s.store.WriteConversationTurn(r.Context(), "assistant", answer); terr != nil {
		s.logger.Error("failed to persist assistant turn", "error", terr)
	}

	// Hand the delivery layer exactly one complete answer string.
	if s.hermes != nil {
		if perr := s.hermes.Publish(hermes.SubjectAnswerReady, hermes.AnswerReadyEvent{
			Question: req.Question,
			Answer:   answer,
		}); perr != nil {
			s.logger.Warn("failed to publish answer", "error", perr)
		}
	}

	if err != nil {
		writeJSON(w, statusFor(err), askResponse{Answer: answer})
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type ingestRequest struct {
	SourceID   string `json:"source_id,omitempty"`
	SourceType string `json:"source_type"`
	Title      string `json:"title"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Format     string `json:"format,omitempty"`
	Content    string `json:"content"`
}

type ingestResponse struct {
	SourceID string   `json:"source_id"`
	ChunkIDs []string `json:"chunk_ids"`
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	meta := segment.SourceMeta{
		Type:  req.SourceType,
		Title: req.Title,
	}
	if meta.Type == "" {
		meta.Type = "document"
	}
	if req.SourceID != "" {
		id, err := uuid.Parse(req.SourceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source_id")
			return
		}
		meta.ID = id
	} else {
		meta.ID = uuid.New()
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		meta.Date = date
	}

	var utts []turns.Utterance
	if req.Format == "chat_jsonl" {
		var err error
		utts, err = turns.ParseChatJSONL(strings.NewReader(req.Content))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unparseable chat jsonl")
			return
		}
	} else {
		utts = turns.ParseTranscript(req.Content, meta.Date)
	}

	chunkIDs, err := s.processor.IngestSource(r.Context(), utts, meta)
	if err != nil {
		s.logger.Error("ingest failed", "source_id", meta.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	ids := make([]string, len(chunkIDs))
	for i, id := range chunkIDs {
		ids[i] = id.String()
	}
	writeJSON(w, http.StatusOK, ingestResponse{SourceID: meta.ID.String(), ChunkIDs: ids})
}

// statusFor maps a typed loop failure to an HTTP status.
func statusFor(err error) int {
	var le *loop.Error
	if !errors.As(err, &le) {
		return http.StatusInternalServerError
	}
	switch le.Kind {
	case loop.KindRateLimited:
		return http.StatusTooManyRequests
	case loop.KindTimeout:
		return http.StatusGatewayTimeout
	case loop.KindQuerySyntax, loop.KindParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
