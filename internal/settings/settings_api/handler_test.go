package settings_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/settings"
	"wedding-rsvp/internal/settings/settings_api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps the single settings document in memory.
type memStore struct {
	mu  sync.Mutex
	doc *models.Settings
}

func (m *memStore) Get(context.Context) (*models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, models.ErrNotFound
	}
	cp := *m.doc
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, s *models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc != nil {
		return models.ErrSettingsAlreadyExist
	}
	s.ID = "settings-1"
	cp := *s
	m.doc = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, s *models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return models.ErrNotFound
	}
	cp := *s
	m.doc = &cp
	return nil
}

const validBody = `{
	"eventName": "Ana & Luis",
	"eventDate": "2026-12-12",
	"rsvpDeadline": "2026-11-01",
	"eventLocation": {"name": "Hacienda", "address": "Km 5", "city": "Mérida", "country": "MX"},
	"emailSettings": {
		"senderEmail": "hello@example.com",
		"senderName": "Ana & Luis",
		"invitationTemplate": "<p>Join us</p>",
		"reminderTemplate": "<p>Reminder</p>"
	}
}`

func setupRouter() http.Handler {
	log := logger.Discard()
	h := settings_api.NewHandler(settings.NewService(&memStore{}, log), log)
	r := chi.NewRouter()
	r.Get("/api/settings", h.GetSettings)
	r.Post("/api/settings", h.CreateSettings)
	r.Put("/api/settings", h.UpdateSettings)
	r.Get("/api/invitation", h.GetInvitation)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

func TestSettingsLifecycle(t *testing.T) {
	router := setupRouter()

	rec := do(router, http.MethodGet, "/api/settings", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Settings not found", message(t, rec))

	rec = do(router, http.MethodPut, "/api/settings", `{"eventName":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Settings not found. Use POST to create initial settings.", message(t, rec))

	rec = do(router, http.MethodPost, "/api/settings", validBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "#0A5741", created.Customization.PrimaryColor)

	rec = do(router, http.MethodPost, "/api/settings", validBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Settings already exist. Use PUT to update.", message(t, rec))

	rec = do(router, http.MethodPut, "/api/settings", `{"eventName":"Ana & Luis Wedding"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Ana & Luis Wedding", updated.EventName)
	assert.Equal(t, "Hacienda", updated.EventLocation.Name)

	rec = do(router, http.MethodGet, "/api/invitation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pub map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pub))
	assert.Equal(t, "Ana & Luis Wedding", pub["eventName"])
	assert.NotContains(t, rec.Body.String(), "emailSettings")
}

func TestCreateSettingsValidation(t *testing.T) {
	router := setupRouter()

	rec := do(router, http.MethodPost, "/api/settings", `{"eventName":"x","eventDate":"2026-12-12","rsvpDeadline":"2026-11-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["field"])

	rec = do(router, http.MethodPost, "/api/settings", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
