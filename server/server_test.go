package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	config := DefaultConfig()
	config.DefaultDepth = 2
	config.DefaultTimeBudgetMs = 0
	config.DefaultTopMoves = 2
	var store *Store
	if withStore {
		var err error
		store, err = NewStore(filepath.Join(t.TempDir(), "analysis.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		if err := store.InitDB(); err != nil {
			t.Fatalf("init schema: %v", err)
		}
		t.Cleanup(func() { store.Close() })
	}
	return NewServer(NewConfigStore(config), store)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, handler http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec
}

func TestPing(t *testing.T) {
	handler := newTestServer(t, false).Router()
	var body map[string]bool
	if rec := getJSON(t, handler, "/api/ping", &body); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !body["ok"] {
		t.Fatal("expected ok=true")
	}
}

func TestAnalyzeChessPosition(t *testing.T) {
	handler := newTestServer(t, false).Router()
	rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{
		Variant:  "chess",
		Depth:    2,
		TopMoves: 2,
		NoBook:   true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp AnalysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BestMove == "" {
		t.Fatal("expected a best move")
	}
	if len(resp.TopMoves) != 2 {
		t.Fatalf("expected 2 ranked moves, got %d", len(resp.TopMoves))
	}
	if resp.TopMoves[0].Rank != 1 {
		t.Fatalf("ranking must start at 1, got %d", resp.TopMoves[0].Rank)
	}
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Fatalf("id is not a uuid: %v", err)
	}
	if resp.Stats.DepthReached < 1 {
		t.Fatalf("expected at least one completed depth, got %d", resp.Stats.DepthReached)
	}
}

func TestAnalyzeGomokuPosition(t *testing.T) {
	handler := newTestServer(t, false).Router()
	rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{
		Variant: "gomoku",
		Squares: []int{112},
		Depth:   2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp AnalysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Variant != "gomoku" || resp.BestMove == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// Placement moves render in the engine's coordinate notation, e.g. "h8".
	if !regexp.MustCompile(`^[a-o](1[0-5]|[1-9])$`).MatchString(resp.BestMove) {
		t.Fatalf("best move %q is not board-coordinate notation", resp.BestMove)
	}
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	handler := newTestServer(t, false).Router()

	if rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{Variant: "checkers"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown variant must 400, got %d", rec.Code)
	}
	if rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{Variant: "chess", Depth: 99}); rec.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range depth must 400, got %d", rec.Code)
	}
	if rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{Variant: "chess", FEN: "garbage"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unparseable fen must 400, got %d", rec.Code)
	}
	// Mated positions have no legal moves and therefore no analysis.
	rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{
		Variant: "chess",
		FEN:     "r1bqkb1r/pppp1Qpp/2n2n2/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4",
		Depth:   1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mated position must 400, got %d", rec.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	handler := newTestServer(t, false).Router()
	postJSON(t, handler, "/api/analysis", AnalyzeRequest{Variant: "chess", Depth: 2, NoBook: true})

	var caches map[string]cacheStatusDTO
	if rec := getJSON(t, handler, "/api/cache", &caches); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	chessCache, ok := caches["chess"]
	if !ok {
		t.Fatal("expected a chess cache after analysis")
	}
	if chessCache.Stores == 0 {
		t.Fatal("a depth-2 search must have stored entries")
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/cache", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status %d", rec.Code)
	}

	caches = nil
	getJSON(t, handler, "/api/cache", &caches)
	if caches["chess"].Entries != 0 {
		t.Fatalf("cache must be empty after clear, got %d entries", caches["chess"].Entries)
	}
}

func TestAnalysisHistoryRoundTrip(t *testing.T) {
	srv := newTestServer(t, true)
	handler := srv.Router()

	rec := postJSON(t, handler, "/api/analysis", AnalyzeRequest{Variant: "chess", Depth: 2, NoBook: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp AnalysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	srv.store.Flush()

	var listing struct {
		Analyses []AnalysisRecord `json:"analyses"`
	}
	if rec := getJSON(t, handler, "/api/analysis?variant=chess", &listing); rec.Code != http.StatusOK {
		t.Fatalf("listing status %d", rec.Code)
	}
	if len(listing.Analyses) != 1 {
		t.Fatalf("expected 1 recorded analysis, got %d", len(listing.Analyses))
	}
	if listing.Analyses[0].AnalysisID != resp.ID {
		t.Fatalf("recorded id %s does not match response id %s", listing.Analyses[0].AnalysisID, resp.ID)
	}

	var record AnalysisRecord
	if rec := getJSON(t, handler, "/api/analysis/"+resp.ID, &record); rec.Code != http.StatusOK {
		t.Fatalf("fetch status %d", rec.Code)
	}
	if record.BestMove != resp.BestMove {
		t.Fatalf("stored best move %q differs from response %q", record.BestMove, resp.BestMove)
	}

	if rec := getJSON(t, handler, "/api/analysis/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id must 404, got %d", rec.Code)
	}
	if rec := getJSON(t, handler, "/api/analysis/not-a-uuid", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id must 400, got %d", rec.Code)
	}
}

func TestHistoryDisabledWithoutStore(t *testing.T) {
	handler := newTestServer(t, false).Router()
	if rec := getJSON(t, handler, "/api/analysis", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("history without a store must 503, got %d", rec.Code)
	}
}

func TestStoreDegradesInsteadOfFailing(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "degraded.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	// Schema never initialized: the first write fails and flips health.
	store.RecordAnalysis(AnalysisRecord{AnalysisID: uuid.NewString(), Variant: "chess", CreatedUTC: time.Now().UTC()})
	deadline := time.After(2 * time.Second)
	for store.IsHealthy() {
		select {
		case <-deadline:
			t.Fatal("store should degrade after a failed write")
		case <-time.After(10 * time.Millisecond):
		}
	}
	store.RecordAnalysis(AnalysisRecord{AnalysisID: uuid.NewString(), Variant: "chess", CreatedUTC: time.Now().UTC()})
}

func TestConfigUpdate(t *testing.T) {
	srv := newTestServer(t, false)
	handler := srv.Router()

	config := srv.configStore.Get()
	config.DefaultTopMoves = 5
	if rec := postJSON(t, handler, "/api/config", config); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got Config
	getJSON(t, handler, "/api/config", &got)
	if got.DefaultTopMoves != 5 {
		t.Fatalf("config did not update, got %d", got.DefaultTopMoves)
	}
}
