package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/timclh/Chess-v1-sub000/engine"
	"github.com/timclh/Chess-v1-sub000/games/chess"
	"github.com/timclh/Chess-v1-sub000/games/gomoku"
)

var validate = validator.New()

type AnalyzeRequest struct {
	Variant string `json:"variant" validate:"required,oneof=chess gomoku"`

	// FEN seeds a chess position; empty means the initial position.
	FEN string `json:"fen" validate:"omitempty,max=120"`

	// Squares seeds a gomoku position as placements in play order.
	Squares []int `json:"squares" validate:"omitempty,max=400,dive,min=0"`

	Depth        int  `json:"depth" validate:"omitempty,min=1,max=8"`
	TimeBudgetMs int  `json:"time_budget_ms" validate:"omitempty,min=1,max=60000"`
	Difficulty   int  `json:"difficulty" validate:"omitempty,min=1,max=4"`
	TopMoves     int  `json:"top_moves" validate:"omitempty,min=1,max=20"`
	NoBook       bool `json:"no_book"`
}

type RankedMoveDTO struct {
	Rank           int     `json:"rank"`
	Move           string  `json:"move"`
	Score          int     `json:"score"`
	WinProbability float64 `json:"win_probability"`
	Explanation    string  `json:"explanation"`
}

type AnalysisResponse struct {
	ID             string             `json:"id"`
	Variant        string             `json:"variant"`
	Position       string             `json:"position"`
	BestMove       string             `json:"best_move"`
	Score          int                `json:"score"`
	WinProbability float64            `json:"win_probability"`
	Explanation    string             `json:"explanation"`
	TopMoves       []RankedMoveDTO    `json:"top_moves"`
	Stats          engine.SearchStats `json:"stats"`
	CreatedAtMs    int64              `json:"created_at_ms"`
}

type cacheStatusDTO struct {
	Entries int    `json:"entries"`
	Ceiling int    `json:"ceiling"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Stores  uint64 `json:"stores"`
	Clears  uint64 `json:"clears"`
}

type StatusResponse struct {
	UptimeMs     int64                     `json:"uptime_ms"`
	Variants     []string                  `json:"variants"`
	Caches       map[string]cacheStatusDTO `json:"caches"`
	StoreHealthy bool                      `json:"store_healthy"`
	HistoryOn    bool                      `json:"history_on"`
}

// Server wires the engines, config, history store and websocket hub behind a
// chi router. One engine instance serves each variant; analyses are
// serialized so the shared book randomness and caches stay race free.
type Server struct {
	configStore *ConfigStore
	store       *Store
	hub         *AnalysisHub

	// mu guards the engines map; searchMu serializes searches so the shared
	// book randomness stays race free and concurrent requests queue up.
	mu       sync.Mutex
	searchMu sync.Mutex
	engines  map[string]*engine.Engine
	started  time.Time
}

func NewServer(configStore *ConfigStore, store *Store) *Server {
	return &Server{
		configStore: configStore,
		store:       store,
		hub:         NewAnalysisHub(),
		engines:     make(map[string]*engine.Engine),
		started:     time.Now(),
	}
}

// Hub exposes the websocket hub so the daemon can run it.
func (s *Server) Hub() *AnalysisHub { return s.hub }

// Engines snapshots the per-variant engines, for cache persistence.
func (s *Server) Engines() map[string]*engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*engine.Engine, len(s.engines))
	for k, v := range s.engines {
		out[k] = v
	}
	return out
}

// EngineFor returns the engine serving a variant, creating it on first use.
func (s *Server) EngineFor(variant string) *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.engines[variant]; ok {
		return eng
	}
	config := s.configStore.Get()
	var eng *engine.Engine
	switch variant {
	case "gomoku":
		eng = gomoku.NewEngine(config.GomokuBoardSize)
	default:
		eng = chess.NewEngine()
	}
	if config.CacheCeiling > 0 {
		eng.SetCacheCeiling(config.CacheCeiling)
	}
	s.engines[variant] = eng
	return eng
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.status())
	})

	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.configStore.Get())
	})

	r.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		var config Config
		if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		s.configStore.Update(config)
		writeJSON(w, http.StatusOK, config)
	})

	r.Post("/api/analysis", func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if errs := validate.Struct(&req); errs != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "validation failed",
				"details": validationDetails(errs),
			})
			return
		}
		resp, err := s.Analyze(req, nil)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/api/analysis", func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history disabled"})
			return
		}
		limit := s.configStore.Get().HistoryLimit
		records, err := s.store.QueryAnalyses(r.URL.Query().Get("variant"), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
	})

	r.Get("/api/analysis/{id}", func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history disabled"})
			return
		}
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
			return
		}
		record, ok, err := s.store.GetAnalysis(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, record)
	})

	r.Get("/api/cache", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.cacheStatus())
	})

	r.Delete("/api/cache", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		for _, eng := range s.engines {
			eng.ClearCache()
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
	})

	r.Get("/ws/analysis", func(w http.ResponseWriter, r *http.Request) {
		serveAnalysisWS(s, w, r)
	})

	return r
}

// Analyze runs a full search for the request and returns the annotated
// result. progress, when non-nil, receives each completed deepening
// iteration.
func (s *Server) Analyze(req AnalyzeRequest, progress func(engine.ProgressUpdate)) (AnalysisResponse, error) {
	config := s.configStore.Get()
	pos, err := s.buildPosition(req, config)
	if err != nil {
		return AnalysisResponse{}, err
	}
	eng := s.EngineFor(req.Variant)

	opts := s.searchOptions(req, config)
	opts.Progress = progress

	s.searchMu.Lock()
	best, ok := eng.FindBestMove(pos, opts)
	s.searchMu.Unlock()
	if !ok {
		return AnalysisResponse{}, fmt.Errorf("no legal moves in position")
	}

	topN := req.TopMoves
	if topN <= 0 {
		topN = config.DefaultTopMoves
	}
	rankOpts := opts
	rankOpts.Progress = nil
	rankOpts.Stats = &engine.SearchStats{}
	s.searchMu.Lock()
	ranked := eng.FindTopMoves(pos, topN, rankOpts)
	s.searchMu.Unlock()

	resp := AnalysisResponse{
		ID:          uuid.NewString(),
		Variant:     req.Variant,
		Position:    pos.Fingerprint(),
		BestMove:    s.moveString(req.Variant, best, eng),
		Stats:       *opts.Stats,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	for _, rm := range ranked {
		dto := RankedMoveDTO{
			Rank:           rm.Rank,
			Move:           s.moveString(req.Variant, rm.Move, eng),
			Score:          rm.Score,
			WinProbability: rm.WinProbability,
			Explanation:    rm.Explanation,
		}
		resp.TopMoves = append(resp.TopMoves, dto)
		if rm.Move.SameAs(best) {
			resp.Score = rm.Score
			resp.WinProbability = rm.WinProbability
			resp.Explanation = rm.Explanation
		}
	}
	if resp.Explanation == "" {
		// Book moves and truncated rankings may not cover the chosen move.
		s.searchMu.Lock()
		resp.Explanation = eng.ExplainMove(pos, best)
		resp.Score = eng.Evaluate(pos)
		s.searchMu.Unlock()
		resp.WinProbability = engine.WinProbability(resp.Score, pos.SideToMove() == engine.SideFirst)
	}

	if s.store != nil {
		s.store.RecordAnalysis(AnalysisRecord{
			AnalysisID:     resp.ID,
			Variant:        resp.Variant,
			Position:       resp.Position,
			BestMove:       resp.BestMove,
			Score:          resp.Score,
			WinProbability: resp.WinProbability,
			Depth:          opts.Stats.DepthReached,
			Nodes:          int64(opts.Stats.Nodes),
			ElapsedMs:      opts.Stats.Elapsed.Milliseconds(),
			BookHit:        opts.Stats.BookHit,
			CreatedUTC:     time.Now().UTC(),
		})
	}
	if s.hub.HasClients() {
		s.hub.Publish(resp)
	}
	return resp, nil
}

func (s *Server) buildPosition(req AnalyzeRequest, config Config) (engine.Rules, error) {
	switch req.Variant {
	case "gomoku":
		size := config.GomokuBoardSize
		if size <= 0 {
			size = gomoku.DefaultSize
		}
		pos := gomoku.NewPosition(size)
		for _, sq := range req.Squares {
			if sq >= size*size {
				return nil, fmt.Errorf("square %d outside a %dx%d board", sq, size, size)
			}
			if err := pos.Apply(pos.PlaceMove(sq%size, sq/size)); err != nil {
				return nil, fmt.Errorf("invalid placement sequence: %w", err)
			}
		}
		return pos, nil
	default:
		if req.FEN == "" {
			return chess.NewPosition(), nil
		}
		pos, err := chess.FromFEN(req.FEN)
		if err != nil {
			return nil, fmt.Errorf("invalid fen: %w", err)
		}
		return pos, nil
	}
}

func (s *Server) searchOptions(req AnalyzeRequest, config Config) engine.Options {
	var opts engine.Options
	if req.Difficulty > 0 {
		opts = engine.DifficultyOptions(req.Difficulty)
	} else {
		opts = engine.Options{
			Depth:            config.DefaultDepth,
			TimeBudgetMs:     config.DefaultTimeBudgetMs,
			CandidateBreadth: config.CandidateBreadth,
			UseQuiescence:    config.UseQuiescence,
			UseBook:          config.UseOpeningBook,
		}
	}
	if req.Depth > 0 {
		opts.Depth = req.Depth
	}
	if req.TimeBudgetMs > 0 {
		opts.TimeBudgetMs = req.TimeBudgetMs
	}
	if req.NoBook {
		opts.UseBook = false
	}
	opts.Stats = &engine.SearchStats{}
	return opts
}

// moveString renders a move in the variant's notation: UCI for chess,
// coordinate naming from the engine's own weight table for placement games,
// so the rendering always matches the board size the engine was built with.
func (s *Server) moveString(variant string, m engine.Move, eng *engine.Engine) string {
	if variant == "chess" {
		return chess.UCI(m)
	}
	if w := eng.Weights(); w != nil && w.SquareName != nil {
		return w.SquareName(m.To)
	}
	return m.String()
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := StatusResponse{
		UptimeMs:  time.Since(s.started).Milliseconds(),
		Variants:  []string{},
		Caches:    make(map[string]cacheStatusDTO),
		HistoryOn: s.store != nil,
	}
	for variant, eng := range s.engines {
		status.Variants = append(status.Variants, variant)
		status.Caches[variant] = cacheDTO(eng)
	}
	if s.store != nil {
		status.StoreHealthy = s.store.IsHealthy()
	}
	return status
}

func (s *Server) cacheStatus() map[string]cacheStatusDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]cacheStatusDTO, len(s.engines))
	for variant, eng := range s.engines {
		out[variant] = cacheDTO(eng)
	}
	return out
}

func cacheDTO(eng *engine.Engine) cacheStatusDTO {
	cache := eng.Cache()
	stats := cache.Stats()
	return cacheStatusDTO{
		Entries: cache.Len(),
		Ceiling: cache.Ceiling(),
		Hits:    stats.Hits,
		Misses:  stats.Misses,
		Stores:  stats.Stores,
		Clears:  stats.Clears,
	}
}

// validationDetails flattens validator errors into one readable line.
func validationDetails(errs error) string {
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		return errs.Error()
	}
	var details strings.Builder
	for _, err := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
		case "min":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
			}
		case "max":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return details.String()
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
