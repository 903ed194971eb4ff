package web

import (
	"bufio"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/agentlab/internal/adapters/turso"
	"github.com/emiliopalmerini/agentlab/internal/migrate"
	"github.com/emiliopalmerini/agentlab/internal/ports"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrate.RunAll(context.Background(), db))
	return db
}

func TestChangesStream(t *testing.T) {
	env := newTestEnv(t, &MockExperimentRepository{}, &MockBattleRepository{})
	env.server.heartbeat = time.Hour

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/changes?table=experiments&filter=goal%3Deq.Translate", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return env.hub.SubscriberCount("experiments") == 1
	}, time.Second, 10*time.Millisecond)

	env.hub.Publish(ports.ChangeEvent{Table: "experiments", Type: ports.ChangeInsert, Record: map[string]string{"id": "skip", "goal": "Other"}})
	env.hub.Publish(ports.ChangeEvent{Table: "experiments", Type: ports.ChangeInsert, Record: map[string]string{"id": "keep", "goal": "Translate"}})

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
			break
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, "insert", event)
	assert.Contains(t, data, `"id":"keep"`)
	assert.NotContains(t, data, "skip")
}

func TestServer_EndToEnd(t *testing.T) {
	repos := turso.NewRepositories(testDB(t))
	env := newTestEnv(t, repos.Experiments, repos.Battles)

	rec := env.do(http.MethodPost, "/api/experiments", `{"name":"alpha","goal":"Summarize","rating":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alpha := decodeBody[experimentResponse](t, rec)

	rec = env.do(http.MethodPost, "/api/experiments", `{"name":"beta","goal":"Summarize"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	beta := decodeBody[experimentResponse](t, rec)

	rec = env.do(http.MethodPost, "/api/battles", `{"winner_id":"`+beta.ID+`","loser_id":"`+alpha.ID+`"}`, UserIDHeader, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decodeBody[battleResultResponse](t, rec)
	assert.True(t, result.HistoryRecorded)

	rec = env.do(http.MethodGet, "/api/leaderboard?goal=Summarize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decodeBody[leaderboardResponse](t, rec)
	require.Len(t, board.Ranking, 2)
	assert.Equal(t, beta.ID, board.Ranking[0].ID)
	assert.Equal(t, 1216, board.Ranking[0].EloRating)
	assert.Equal(t, 1184, board.Ranking[1].EloRating)
	require.Len(t, board.RecentBattles, 1)

	rec = env.do(http.MethodGet, "/api/experiments/"+alpha.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody[experimentDetailResponse](t, rec)
	require.Len(t, detail.Battles, 1)
	assert.Equal(t, 1200, detail.Battles[0].LoserBefore)
	require.NotNil(t, detail.Battles[0].UserID)
	assert.Equal(t, "u1", *detail.Battles[0].UserID)

	rec = env.do(http.MethodPut, "/api/experiments/"+beta.ID+"/rating", `{"rating":2}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[struct {
		Summary struct {
			Total         int     `json:"total"`
			Rated         int     `json:"rated"`
			AverageRating float64 `json:"averageRating"`
		} `json:"summary"`
	}](t, rec)
	assert.Equal(t, 2, dash.Summary.Total)
	assert.Equal(t, 2, dash.Summary.Rated)
	assert.Equal(t, 3.5, dash.Summary.AverageRating)

	rec = env.do(http.MethodDelete, "/api/experiments/"+alpha.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(http.MethodGet, "/api/experiments/"+alpha.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
