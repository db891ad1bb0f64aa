package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"

	"github.com/mcoot/pointsbot/internal/api"
	"github.com/mcoot/pointsbot/internal/factory"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/testutil"
	"github.com/mcoot/pointsbot/internal/web"
)

// webTestServer provides a test server for dashboard testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

// newWebTestServer mounts the API and dashboard on one router, as the server does
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	r := mux.NewRouter()
	api.Mount(r, api.RouterConfig{
		Logger:        testutil.NopLogger(),
		AuthService:   app.AuthService,
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		HubManager:    app.HubManager,
		StorageType:   app.StorageType,
	})
	web.Mount(r, web.RouterConfig{
		Logger:        testutil.NopLogger(),
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		Clock:         app.MockClock,
		Locale:        app.Locale,
	})

	return &webTestServer{
		t:       t,
		handler: r,
		app:     app,
	}
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// createPlayer adds a player straight through the ledger
func (ts *webTestServer) createPlayer(discordID, username string, points int) *model.Player {
	ts.t.Helper()
	p, err := ts.app.Ledger.CreatePlayer(ts.t.Context(), discordID, username, points)
	if err != nil {
		ts.t.Fatalf("create player %s: %v", username, err)
	}
	return p
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
