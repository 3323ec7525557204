package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"betting_assistant/models"
	"betting_assistant/pkg/errs"
	"betting_assistant/pkg/history"
	"betting_assistant/pkg/mlb"
	"betting_assistant/pkg/stats"
	"betting_assistant/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	apiKey string
	result *models.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(_ context.Context, apiKey string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	s.apiKey = apiKey
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &models.AnalysisResult{
		Event:   models.EventInfo{Sport: req.Sport, League: req.League, Teams: req.Teams, Date: req.EventDate},
		BetType: req.BetType,
		Insights: &models.AnalysisInsights{
			Summary:        "Home team is rested",
			Recommendation: "Yankees ML",
			Confidence:     0.72,
		},
	}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	saved    []models.AnalysisRecord
	outcomes []models.AnalysisRecord
	last     stats.Summary
}

func (n *recordingNotifier) AnalysisSaved(record models.AnalysisRecord, summary stats.Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved = append(n.saved, record)
	n.last = summary
}

func (n *recordingNotifier) OutcomeUpdated(record models.AnalysisRecord, summary stats.Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, record)
	n.last = summary
}

type fixture struct {
	router   *gin.Engine
	store    *history.Store
	analyzer *stubAnalyzer
	notifier *recordingNotifier
}

func newFixture(t *testing.T, fallbackKey string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	day := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	store := history.NewStore(storage.NewMemoryKV(), history.WithClock(func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		day = day.Add(24 * time.Hour)
		return day
	}))

	f := &fixture{
		store:    store,
		analyzer: &stubAnalyzer{},
		notifier: &recordingNotifier{},
	}

	historyController := NewHistoryController(store, f.notifier)
	analysisController := NewAnalysisController(f.analyzer, store, historyController, fallbackKey)
	settingsController := NewSettingsController(store, history.DefaultCredentialPrefix)

	r := gin.New()
	r.POST("/analyze", analysisController.Analyze)
	r.POST("/analysis", analysisController.CreateAnalysis)
	r.GET("/history", historyController.GetHistory)
	r.POST("/history", historyController.CreateRecord)
	r.GET("/history/stats", historyController.GetStats)
	r.GET("/history/recent", historyController.GetRecent)
	r.GET("/history/:id", historyController.GetRecord)
	r.PUT("/history/:id/outcome", historyController.UpdateOutcome)
	r.GET("/dashboard", historyController.GetDashboard)
	r.GET("/settings/credential", settingsController.GetCredential)
	r.PUT("/settings/credential", settingsController.SaveCredential)
	r.DELETE("/settings/credential", settingsController.ClearCredential)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func decode(t *testing.T, raw json.RawMessage, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dest), string(raw))
}

var analysisBody = gin.H{"sport": "Baseball", "league": "MLB", "teams": "Red Sox vs Yankees", "eventDate": "2025-06-03"}

func TestAnalyzeRequiresCredential(t *testing.T) {
	f := newFixture(t, "")

	w, resp := f.do(t, http.MethodPost, "/analyze", analysisBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var redirect, code string
	decode(t, resp["redirect"], &redirect)
	decode(t, resp["code"], &code)
	assert.Equal(t, CredentialRedirect, redirect)
	assert.Equal(t, errs.TypeCredentialMissing, code)
}

func TestAnalyzeValidation(t *testing.T) {
	f := newFixture(t, "sk-server")

	w, resp := f.do(t, http.MethodPost, "/analyze", gin.H{"sport": "Baseball"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var fields []string
	decode(t, resp["fields"], &fields)
	assert.Equal(t, []string{"league", "teams"}, fields)
}

func TestAnalyzePrefersStoredCredential(t *testing.T) {
	f := newFixture(t, "sk-server")

	w, _ := f.do(t, http.MethodPost, "/analyze", analysisBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sk-server", f.analyzer.apiKey)

	w, _ = f.do(t, http.MethodPut, "/settings/credential", gin.H{"apiKey": "sk-user-123456"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := f.do(t, http.MethodPost, "/analyze", analysisBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sk-user-123456", f.analyzer.apiKey)

	var result models.AnalysisResult
	decode(t, resp["data"], &result)
	assert.Equal(t, models.DefaultBetType, result.BetType)
	assert.Empty(t, f.store.Load(context.Background()), "analyze must not save")
}

func TestAnalyzeRemoteFailure(t *testing.T) {
	f := newFixture(t, "sk-server")
	f.analyzer.err = errs.NewRemoteServiceFailure("openai", "Failed to generate analysis", assert.AnError)

	w, resp := f.do(t, http.MethodPost, "/analysis", analysisBody)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var message string
	decode(t, resp["error"], &message)
	assert.Equal(t, "Failed to generate analysis", message)
	assert.Empty(t, f.store.Load(context.Background()))
}

func TestCreateAnalysisSavesAndNotifies(t *testing.T) {
	f := newFixture(t, "sk-server")

	w, resp := f.do(t, http.MethodPost, "/analysis", analysisBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Record models.AnalysisRecord `json:"record"`
	}
	decode(t, resp["data"], &data)
	assert.Contains(t, data.Record.ID, "analysis_")
	assert.Equal(t, models.OutcomePending, data.Record.Outcome)
	assert.Equal(t, "Yankees ML", data.Record.Recommendation)
	assert.Equal(t, models.Confidence(0.72), data.Record.Confidence)

	require.Len(t, f.notifier.saved, 1)
	assert.Equal(t, data.Record.ID, f.notifier.saved[0].ID)
	assert.Equal(t, 1, f.notifier.last.Total)

	w, resp = f.do(t, http.MethodGet, "/history/"+data.Record.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found models.AnalysisRecord
	decode(t, resp["data"], &found)
	assert.Equal(t, "Red Sox vs Yankees", found.Event.Teams)
}

func seed(t *testing.T, f *fixture) []models.AnalysisRecord {
	t.Helper()
	candidates := []models.AnalysisRecord{
		{Event: models.EventInfo{Teams: "A vs B"}, Recommendation: "A ML", Confidence: 0.55},
		{Event: models.EventInfo{Teams: "C vs D"}, Recommendation: "D +1.5", Confidence: 0.80},
		{Event: models.EventInfo{Teams: "E vs F"}, Recommendation: "Over 8.5", Confidence: 0.65},
		{Event: models.EventInfo{Teams: "G vs H"}, Recommendation: "H ML", Confidence: 0.70},
		{Event: models.EventInfo{Teams: "I vs J"}, Recommendation: "I -1.5", Confidence: 0.60},
	}
	saved := make([]models.AnalysisRecord, 0, len(candidates))
	for i := range candidates {
		w, resp := f.do(t, http.MethodPost, "/history", candidates[i])
		require.Equal(t, http.StatusCreated, w.Code)
		var record models.AnalysisRecord
		decode(t, resp["data"], &record)
		saved = append(saved, record)
	}
	return saved
}

func TestOutcomeFlowAndStats(t *testing.T) {
	f := newFixture(t, "")
	saved := seed(t, f)

	updates := []struct {
		id      string
		outcome string
		roi     string
	}{
		{saved[0].ID, "win", "+110"},
		{saved[1].ID, "loss", "-110"},
		{saved[2].ID, "push", "Even"},
	}
	for _, u := range updates {
		w, _ := f.do(t, http.MethodPut, "/history/"+u.id+"/outcome", gin.H{"outcome": u.outcome, "roi": u.roi})
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Len(t, f.notifier.outcomes, 3)

	w, resp := f.do(t, http.MethodGet, "/history/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary stats.Summary
	decode(t, resp["data"], &summary)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, 1, summary.Pushes)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, "33.3%", summary.WinRate)
	assert.Equal(t, "0.0%", summary.AverageReturn)

	w, resp = f.do(t, http.MethodGet, "/history?filter=pending&sortBy=confidence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.AnalysisRecord
	decode(t, resp["data"], &pending)
	require.Len(t, pending, 2)
	assert.Equal(t, saved[3].ID, pending[0].ID)
	assert.Equal(t, saved[4].ID, pending[1].ID)

	w, resp = f.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.AnalysisRecord
	decode(t, resp["data"], &all)
	require.Len(t, all, 5)
	assert.Equal(t, saved[4].ID, all[0].ID)
	assert.Equal(t, saved[0].ID, all[4].ID)
}

func TestOutcomeErrors(t *testing.T) {
	f := newFixture(t, "")
	saved := seed(t, f)

	w, _ := f.do(t, http.MethodPut, "/history/"+saved[0].ID+"/outcome", gin.H{"outcome": "won"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPut, "/history/analysis_missing/outcome", gin.H{"outcome": "win"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodGet, "/history/analysis_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodGet, "/history?sortBy=teams", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, f.notifier.outcomes)
}

func TestDashboardAndRecent(t *testing.T) {
	f := newFixture(t, "")
	saved := seed(t, f)

	w, resp := f.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dashboard struct {
		Stats  []stats.StatItem        `json:"stats"`
		Recent []models.AnalysisRecord `json:"recent"`
	}
	decode(t, resp["data"], &dashboard)
	require.Len(t, dashboard.Stats, 4)
	assert.Equal(t, stats.StatItem{Name: "Total Analyses", Stat: "5"}, dashboard.Stats[0])
	assert.Equal(t, stats.StatItem{Name: "Success Rate", Stat: stats.WinRateNotAvailable}, dashboard.Stats[1])
	assert.Equal(t, stats.StatItem{Name: "Average ROI", Stat: stats.ZeroReturn}, dashboard.Stats[2])
	assert.Equal(t, stats.StatItem{Name: "Pending Decisions", Stat: "5"}, dashboard.Stats[3])
	require.Len(t, dashboard.Recent, stats.DefaultRecentLimit)
	assert.Equal(t, saved[4].ID, dashboard.Recent[0].ID)

	w, resp = f.do(t, http.MethodGet, "/history/recent?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recent []models.AnalysisRecord
	decode(t, resp["data"], &recent)
	assert.Len(t, recent, 2)

	w, _ = f.do(t, http.MethodGet, "/history/recent?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsCredential(t *testing.T) {
	f := newFixture(t, "")

	w, resp := f.do(t, http.MethodPut, "/settings/credential", gin.H{"apiKey": "pk-wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var code string
	decode(t, resp["code"], &code)
	assert.Equal(t, errs.TypeValidation, code)

	w, _ = f.do(t, http.MethodPut, "/settings/credential", gin.H{"apiKey": "sk-abcdefghijkl"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, http.MethodGet, "/settings/credential", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Configured bool   `json:"configured"`
		APIKey     string `json:"apiKey"`
	}
	decode(t, resp["data"], &data)
	assert.True(t, data.Configured)
	assert.Equal(t, "sk-********ijkl", data.APIKey)

	w, _ = f.do(t, http.MethodDelete, "/settings/credential", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = f.do(t, http.MethodGet, "/settings/credential", nil)
	decode(t, resp["data"], &data)
	assert.False(t, data.Configured)
}

func TestEventsController(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schedule":
			_, _ = w.Write([]byte(`{"dates":[{"games":[{"gamePk":1,"gameDate":"2025-06-01T17:05:00Z","season":"2025","teams":{"away":{"team":{"id":111,"name":"Boston Red Sox"}},"home":{"team":{"id":147,"name":"New York Yankees"}}}}]}]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	events := NewEventsController(mlb.NewClient(srv.URL, time.Second, nil, 0))
	r := gin.New()
	r.GET("/mlb/schedule", events.GetSchedule)
	r.GET("/mlb/stats", events.GetStats)
	r.GET("/events/upcoming", events.GetUpcoming)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/upcoming?date=2025-06-01", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"teams":"Boston Red Sox vs New York Yankees"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mlb/stats", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "teamId or playerId required")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mlb/stats?teamId=147", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
