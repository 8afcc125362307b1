package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pvolkov/remindly/internal/auth"
	"github.com/pvolkov/remindly/internal/model"
	"github.com/pvolkov/remindly/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSigningKey = "api-test-key"

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Reminder{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	server := New(
		service.NewReminderService(db, logger),
		service.NewUserService(db, logger),
		auth.NewVerifier(testSigningKey),
		logger,
	)
	return server.Handler(), db
}

func bearer(t *testing.T, sub string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).
		SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func doRequest(t *testing.T, handler http.Handler, method, target, sub, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if sub != "" {
		req.Header.Set("Authorization", bearer(t, sub))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, handler http.Handler, sub string) {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","telegramId":"42"}`, sub, sub)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/user", sub, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("register user %s: status %d: %s", sub, rec.Code, rec.Body.String())
	}
}

func createReminder(t *testing.T, handler http.Handler, sub, name string) model.Reminder {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"description":"d","remindDate":"2025-07-01","remindTime":"09:00"}`, name)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/reminder/create", sub, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create reminder: status %d: %s", rec.Code, rec.Body.String())
	}

	var created model.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created reminder: %v", err)
	}
	return created
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reminder/list", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateAndListReminders(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)
	registerUser(t, handler, "alice")

	createReminder(t, handler, "alice", "dentist")
	createReminder(t, handler, "alice", "groceries")

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reminder/list", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}

	var listed []model.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d reminders, want 2", len(listed))
	}
}

func TestOwnershipNotFoundThenForbidden(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)
	registerUser(t, handler, "alice")
	registerUser(t, handler, "mallory")

	created := createReminder(t, handler, "alice", "private")

	// Unknown id: 404 before ownership can be known.
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reminder/99999", "mallory", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", rec.Code)
	}

	// Existing id owned by someone else: 403.
	target := fmt.Sprintf("/api/v1/reminder/%d", created.ID)
	rec = doRequest(t, handler, http.MethodGet, target, "mallory", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign reminder status = %d, want 403", rec.Code)
	}

	// The owner reads it fine.
	rec = doRequest(t, handler, http.MethodGet, target, "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner read status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	t.Parallel()
	handler, db := newTestServer(t)
	registerUser(t, handler, "alice")
	registerUser(t, handler, "mallory")

	created := createReminder(t, handler, "alice", "keep out")
	target := fmt.Sprintf("/api/v1/reminder/delete/%d", created.ID)

	rec := doRequest(t, handler, http.MethodDelete, target, "mallory", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodDelete, target, "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete status = %d", rec.Code)
	}

	var count int64
	if err := db.Model(&model.Reminder{}).Count(&count).Error; err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if count != 0 {
		t.Fatalf("reminder rows = %d, want 0", count)
	}
}

func TestSortEndpointValidation(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)
	registerUser(t, handler, "alice")

	createReminder(t, handler, "alice", "banana")
	createReminder(t, handler, "alice", "apple")

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reminder/sort?by=name", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sort status = %d: %s", rec.Code, rec.Body.String())
	}
	var sorted []model.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &sorted); err != nil {
		t.Fatalf("decode sorted: %v", err)
	}
	if len(sorted) != 2 || sorted[0].Name != "apple" {
		t.Fatalf("sorted order = %+v", sorted)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/reminder/sort?by=priority", "alice", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid sort field status = %d, want 400", rec.Code)
	}
}

func TestFilterEndpointParsesBounds(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)
	registerUser(t, handler, "alice")

	createReminder(t, handler, "alice", "in range")

	rec := doRequest(t, handler, http.MethodGet,
		"/api/v1/reminder/filter?beforeDate=2025-12-31&afterTime=08:00", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("filter status = %d: %s", rec.Code, rec.Body.String())
	}
	var filtered []model.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("filtered %d reminders, want 1", len(filtered))
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/reminder/filter?beforeDate=tomorrow", "alice", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)
	registerUser(t, handler, "alice")

	createReminder(t, handler, "alice", "Test Reminder")
	createReminder(t, handler, "alice", "groceries")

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reminder/search?name=test", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d: %s", rec.Code, rec.Body.String())
	}
	var found []model.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &found); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Test Reminder" {
		t.Fatalf("search returned %+v", found)
	}
}

func TestUpdateKeepsSentAndChecksOwner(t *testing.T) {
	t.Parallel()
	handler, db := newTestServer(t)
	registerUser(t, handler, "alice")
	registerUser(t, handler, "mallory")

	created := createReminder(t, handler, "alice", "old")
	if err := db.Model(&model.Reminder{}).Where("id = ?", created.ID).Update("sent", true).Error; err != nil {
		t.Fatalf("pre-mark sent: %v", err)
	}

	body := fmt.Sprintf(`{"id":%d,"name":"new"}`, created.ID)
	rec := doRequest(t, handler, http.MethodPut, "/api/v1/reminder/update", "mallory", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign update status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPut, "/api/v1/reminder/update", "alice", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner update status = %d: %s", rec.Code, rec.Body.String())
	}

	var updated model.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Name != "new" || !updated.Sent {
		t.Fatalf("updated = %+v, want name=new sent=true", updated)
	}
}

func TestPagedEndpointDefaults(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)
	registerUser(t, handler, "alice")

	for i := 0; i < 3; i++ {
		createReminder(t, handler, "alice", fmt.Sprintf("task %d", i))
	}

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/reminder/paged?page=0&size=2", "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("paged status = %d: %s", rec.Code, rec.Body.String())
	}

	var page service.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalElements != 3 || page.TotalPages != 2 || len(page.Content) != 2 {
		t.Fatalf("page = %+v", page)
	}
}
