package web_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardEmpty(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "h1", "D&D Campaign Rankings")
	assertContainsText(t, doc, "#leaderboard", "No players found.")
	assertContainsText(t, doc, "#activity", "No recent activity.")
	assertNotContainsElement(t, doc, "nav.pager")
}

func TestLeaderboardRanksPlayers(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("1", "Aragorn", 10)
	ts.createPlayer("2", "Legolas", 30)
	ts.createPlayer("3", "Gimli", 20)
	ts.createPlayer("4", "Boromir", 5)

	doc := parseHTML(ts.get("/").Body)

	assertContainsText(t, doc, "tr.rank-1 td.player", "@Legolas")
	assertContainsText(t, doc, "tr.rank-1 td.marker", "🥇")
	assertContainsText(t, doc, "tr.rank-2 td.player", "@Gimli")
	assertContainsText(t, doc, "tr.rank-3 td.marker", "🥉")
	assertContainsText(t, doc, "tr.rank-4 td.marker", "4.")
	assertContainsText(t, doc, "tr.rank-1 td.points", "30")
	assertContainsText(t, doc, "tr.rank-1 td.updated", "Today")

	href, ok := doc.Find("tr.rank-1 td.player a").Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/players/2", href)
}

func TestLeaderboardPaging(t *testing.T) {
	ts := newWebTestServer(t)
	for i := range 12 {
		ts.createPlayer(strconv.Itoa(i+1), "Player"+strconv.Itoa(i+1), 100-i)
	}

	doc := parseHTML(ts.get("/").Body)
	assert.Equal(t, 10, doc.Find("#leaderboard tbody tr").Length())
	assertContainsText(t, doc, "nav.pager .page", "Page 1 of 2")
	assertContainsElement(t, doc, "nav.pager a.next")
	assertNotContainsElement(t, doc, "nav.pager a.prev")

	doc = parseHTML(ts.get("/?page=2").Body)
	assert.Equal(t, 2, doc.Find("#leaderboard tbody tr").Length())
	assertContainsText(t, doc, "tr.rank-11 td.player", "@Player11")
	assertContainsElement(t, doc, "nav.pager a.prev")
	assertNotContainsElement(t, doc, "nav.pager a.next")
}

func TestLeaderboardBadPageFallsBackToFirst(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("1", "Aragorn", 10)

	for _, page := range []string{"abc", "0", "-2"} {
		rr := ts.get("/?page=" + page)
		require.Equal(t, http.StatusOK, rr.Code, page)
		doc := parseHTML(rr.Body)
		assertContainsText(t, doc, "tr.rank-1 td.player", "@Aragorn")
	}
}

func TestLeaderboardRecentActivity(t *testing.T) {
	ts := newWebTestServer(t)
	gandalf := ts.createPlayer("1", "Gandalf", 0)

	_, err := ts.app.Ledger.AddPoints(t.Context(), gandalf.ID, 5, "solved the riddle", "DungeonMaster")
	require.NoError(t, err)
	ts.app.MockClock.Advance(time.Minute)
	_, err = ts.app.Ledger.ResetPoints(t.Context(), gandalf.ID, "DungeonMaster")
	require.NoError(t, err)

	doc := parseHTML(ts.get("/").Body)
	items := doc.Find("#activity li.activity-item")
	require.Equal(t, 2, items.Length())
	assert.Contains(t, items.First().Text(), "removed 5 PL")
	assert.Contains(t, items.First().Text(), "@Gandalf")
	assert.Contains(t, items.Last().Text(), "added 5 PL")
	assertContainsText(t, doc, "#activity .reason", "solved the riddle")
}

func TestLeaderboardSubscribesToLedgerEvents(t *testing.T) {
	ts := newWebTestServer(t)

	doc := parseHTML(ts.get("/").Body)

	connect, ok := doc.Find("main#content").Attr("sse-connect")
	assert.True(t, ok)
	assert.Equal(t, "/api/events", connect)
	assertContainsElement(t, doc, `[sse-swap="rankings-update"]`)
	assertContainsElement(t, doc, "#rankings #leaderboard")
}

func TestPlayerPage(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("1", "Aragorn", 50)
	frodo := ts.createPlayer("2", "Frodo", 0)

	_, err := ts.app.Ledger.AddPoints(t.Context(), frodo.ID, 8, "", "Gandalf")
	require.NoError(t, err)

	rr := ts.get("/players/2")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "h1.player-name", "@Frodo")
	assertContainsText(t, doc, "dd.total", "8")
	assertContainsText(t, doc, "dd.rank", "2 of 2")
	assertContainsText(t, doc, "dd.updated", "1/1/2024")
	assertContainsText(t, doc, "#history li.entry .amount", "+8 PL")
	assertContainsText(t, doc, "#history li.entry .reason", "No reason")
	assertContainsText(t, doc, "#history li.entry .by", "by Gandalf")

	connect, _ := doc.Find("main#content").Attr("sse-connect")
	assert.Equal(t, "/api/events?playerId=2", connect)
}

func TestPlayerPageWithoutHistory(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("1", "Sam", 0)

	doc := parseHTML(ts.get("/players/1").Body)
	assertContainsText(t, doc, "#history", "No history yet.")
}

func TestPlayerPageNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	for _, path := range []string{"/players/99", "/players/bilbo"} {
		rr := ts.get(path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		doc := parseHTML(rr.Body)
		assertContainsText(t, doc, "p.message", "Player not found")
	}
}

func TestPlayerHistoryFragment(t *testing.T) {
	ts := newWebTestServer(t)
	sam := ts.createPlayer("1", "Sam", 0)

	_, err := ts.app.Ledger.AddPoints(t.Context(), sam.ID, 3, "carried Frodo", "DM")
	require.NoError(t, err)

	rr := ts.get("/players/1/history")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<html")

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "#history .reason", "carried Frodo")
}

func TestAPIRoutesTakePrecedence(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("1", "Sam", 0)

	rr := ts.get("/api/players/1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
}
