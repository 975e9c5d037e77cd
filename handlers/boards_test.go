// microboard/handlers/boards_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"microboard/models"
)

// routerRequest runs a request through the full middleware chain with a
// stable viewer session cookie.
func routerRequest(t *testing.T, app *MockApplication, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := SetupRouter(app)
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: "mb_session", Value: "test-session-id"})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestHandleHome(t *testing.T) {
	app := setupTestApp(t)

	rr := routerRequest(t, app, "GET", "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Boards []models.BoardConfig `json:"boards"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode home payload: %v", err)
	}
	if len(resp.Boards) < 2 {
		t.Errorf("Expected the seeded boards in the home payload, got %d", len(resp.Boards))
	}
}

func TestHandleBoardPage(t *testing.T) {
	app := setupTestApp(t)

	thread := insertThread(t, app, "b", "op post")
	for i := 0; i < 6; i++ {
		p := &models.Post{BoardID: "b", ParentID: thread.PostID, Name: "Anonymous", Message: "reply"}
		if _, err := app.db.InsertPost(p); err != nil {
			t.Fatalf("Failed to insert reply: %v", err)
		}
	}

	rr := routerRequest(t, app, "GET", "/b/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var page boardPageView
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode board page: %v", err)
	}
	if len(page.Threads) != 1 {
		t.Fatalf("Expected 1 thread on the board page, got %d", len(page.Threads))
	}
	tv := page.Threads[0]
	if tv.PostID != thread.PostID {
		t.Errorf("Expected thread %d, got %d", thread.PostID, tv.PostID)
	}
	if tv.RepliesN != 6 {
		t.Errorf("Expected reply count 6, got %d", tv.RepliesN)
	}
	// Preview is capped at the board's preview size.
	if len(tv.Replies) != 4 {
		t.Errorf("Expected 4 preview replies, got %d", len(tv.Replies))
	}
	if page.PageN != 1 {
		t.Errorf("Expected 1 page, got %d", page.PageN)
	}

	if rr := routerRequest(t, app, "GET", "/nosuch/"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown board, got %d", rr.Code)
	}
}

func TestHandleBoardPageMainAggregates(t *testing.T) {
	app := setupTestApp(t)

	insertThread(t, app, "b", "on b")

	rr := routerRequest(t, app, "GET", "/all/")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var page boardPageView
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode board page: %v", err)
	}
	if len(page.Threads) != 1 || page.Threads[0].BoardID != "b" {
		t.Errorf("Expected the overboard to surface the /b/ thread, got %+v", page.Threads)
	}
}

func TestHandleThreadPage(t *testing.T) {
	app := setupTestApp(t)

	thread := insertThread(t, app, "b", "op")
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		p := &models.Post{BoardID: "b", ParentID: thread.PostID, Name: "Anonymous",
			Timestamp: base.Add(time.Duration(i) * time.Minute), Message: "reply"}
		if _, err := app.db.InsertPost(p); err != nil {
			t.Fatalf("Failed to insert reply: %v", err)
		}
	}
	reply := &models.Post{BoardID: "b", ParentID: thread.PostID, Name: "Anonymous", Message: "last"}
	if _, err := app.db.InsertPost(reply); err != nil {
		t.Fatalf("Failed to insert reply: %v", err)
	}

	rr := routerRequest(t, app, "GET", "/b/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var view threadView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode thread view: %v", err)
	}
	if view.PostID != thread.PostID {
		t.Errorf("Expected thread %d, got %d", thread.PostID, view.PostID)
	}
	if view.RepliesN != 4 {
		t.Errorf("Expected 4 replies, got %d", view.RepliesN)
	}
	// Replies come back in chronological order.
	for i := 1; i < len(view.Replies); i++ {
		if view.Replies[i].Bumped.Before(view.Replies[i-1].Bumped) {
			t.Errorf("Replies out of chronological order at index %d", i)
		}
	}

	// Requesting a reply as a thread is rejected.
	if rr := routerRequest(t, app, "GET", "/b/2"); rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 requesting a reply as a thread, got %d", rr.Code)
	}

	if rr := routerRequest(t, app, "GET", "/b/999"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing thread, got %d", rr.Code)
	}
}

func TestHandleHiddenPage(t *testing.T) {
	app := setupTestApp(t)

	visible := insertThread(t, app, "b", "visible")
	hidden := insertThread(t, app, "b", "hidden")
	if _, err := app.db.ToggleHide("test-session-id", "b", hidden.PostID); err != nil {
		t.Fatalf("ToggleHide failed: %v", err)
	}

	rr := routerRequest(t, app, "GET", "/b/hidden")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var page boardPageView
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode hidden page: %v", err)
	}
	if len(page.Threads) != 1 || page.Threads[0].PostID != hidden.PostID {
		t.Errorf("Expected only the hidden thread, got %+v", page.Threads)
	}

	// The board index shows only the visible one for this session.
	rr = routerRequest(t, app, "GET", "/b/")
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode board page: %v", err)
	}
	if len(page.Threads) != 1 || page.Threads[0].PostID != visible.PostID {
		t.Errorf("Expected only the visible thread on the index, got %+v", page.Threads)
	}
}

func TestHandleCatalogPage(t *testing.T) {
	app := setupTestApp(t)

	insertThread(t, app, "b", "one")
	insertThread(t, app, "b", "two")

	rr := routerRequest(t, app, "GET", "/b/catalog")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var page boardPageView
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode catalog page: %v", err)
	}
	if len(page.Threads) != 2 {
		t.Errorf("Expected 2 catalog entries, got %d", len(page.Threads))
	}
	for _, tv := range page.Threads {
		if len(tv.Replies) != 0 {
			t.Error("Catalog entries must not carry reply previews")
		}
	}
}

func TestHandlePostPreview(t *testing.T) {
	app := setupTestApp(t)

	thread := insertThread(t, app, "b", "op")
	reply := &models.Post{BoardID: "b", ParentID: thread.PostID, Name: "Anonymous", Message: "reply"}
	if _, err := app.db.InsertPost(reply); err != nil {
		t.Fatalf("Failed to insert reply: %v", err)
	}

	rr := routerRequest(t, app, "GET", "/b/1/2")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var post models.Post
	if err := json.Unmarshal(rr.Body.Bytes(), &post); err != nil {
		t.Fatalf("Failed to decode post preview: %v", err)
	}
	if post.PostID != reply.PostID {
		t.Errorf("Expected post %d, got %d", reply.PostID, post.PostID)
	}

	// A reply fetched under the wrong thread is not found.
	other := insertThread(t, app, "b", "other thread")
	if rr := routerRequest(t, app, "GET", "/b/3/2"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for reply under wrong thread %d, got %d", other.PostID, rr.Code)
	}

	// A thread root fetched under another thread's number is not found either.
	if rr := routerRequest(t, app, "GET", "/b/1/3"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for thread root under wrong thread, got %d", rr.Code)
	}

	// A thread root under its own number is served.
	rr = routerRequest(t, app, "GET", "/b/1/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for thread root preview, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &post); err != nil {
		t.Fatalf("Failed to decode post preview: %v", err)
	}
	if post.PostID != thread.PostID {
		t.Errorf("Expected thread root %d, got %d", thread.PostID, post.PostID)
	}
}
