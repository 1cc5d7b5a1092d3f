package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"cuegrid/internal/api"
	"cuegrid/internal/config"
	"cuegrid/internal/events"
	"cuegrid/internal/media"
	"cuegrid/internal/output"
	"cuegrid/internal/playback"
	"cuegrid/internal/slots"
	"cuegrid/internal/transition"
)

type fixture struct {
	srv  *Server
	grid *slots.Grid
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	grid := slots.NewGrid()
	bus := events.NewBus(logger)

	primary := output.NewSimPort("primary", logger)
	visual := output.NewMirror(primary, logger)
	visual.AttachSecondary(output.NewSimPort("secondary", logger))

	engine := playback.NewEngine(
		playback.Config{},
		grid,
		visual,
		func() output.Port { return output.NewSimPort("audio", logger) },
		transition.NewEngineWithSleeper(transition.NopSleeper{}, logger),
		bus,
		logger,
	)

	handler := api.NewHandler(engine, grid, bus, media.NewProber(logger), logger)
	cfg, err := config.Load("")
	require.NoError(t, err)

	return &fixture{
		srv:  New(cfg, logger, handler),
		grid: grid,
	}
}

func (f *fixture) do(method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.router.ServeHTTP(rec, req)
	return rec
}

func mediaFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("stub media"), 0o644))
	return path
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
	require.Contains(t, rec.Body.String(), api.Version)
}

func TestAssignAndClickSlot(t *testing.T) {
	f := newFixture(t)
	path := mediaFile(t, "v.mp4")

	rec := f.do(http.MethodPut, "/api/v1/slots/1/3", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"video"`)

	rec = f.do(http.MethodPost, "/api/v1/slots/1/3/click", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Slot_1_3")

	rec = f.do(http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Slot_1_3")
}

func TestClickEmptySlotIsAccepted(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/slots/2/5/click", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestClickMissingFileMapsToNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/api/v1/slots/1/3", `{"path":"/nonexistent/v.mp4"}`)
	require.Equal(t, http.StatusOK, rec.Code, "assignment does not require the file yet")

	rec = f.do(http.MethodPost, "/api/v1/slots/1/3/click", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "ASSET_NOT_FOUND")
}

func TestDuplicateAudioConflict(t *testing.T) {
	f := newFixture(t)
	path := mediaFile(t, "song.mp3")

	rec := f.do(http.MethodPut, "/api/v1/slots/1/3", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodPut, "/api/v1/slots/2/3", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/slots/1/3/click", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/slots/2/3/click", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "DUPLICATE_AUDIO")
}

func TestBadCoordinatesRejected(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/slots/0/1/click", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/triggers/zero/click", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearSlot(t *testing.T) {
	f := newFixture(t)
	path := mediaFile(t, "v.mp4")

	rec := f.do(http.MethodPut, "/api/v1/slots/1/3", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/slots/1/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, f.grid.Asset(1, 3))

	rec = f.do(http.MethodDelete, "/api/v1/slots/1/3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamSlotMedia(t *testing.T) {
	f := newFixture(t)
	path := mediaFile(t, "v.mp4")

	rec := f.do(http.MethodPut, "/api/v1/slots/1/3", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/slots/1/3/media", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.Equal(t, "stub media", rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/slots/9/9/media", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopAll(t *testing.T) {
	f := newFixture(t)
	path := mediaFile(t, "v.mp4")

	rec := f.do(http.MethodPut, "/api/v1/slots/1/3", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodPost, "/api/v1/slots/1/3/click", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/playback/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/state", "")
	require.NotContains(t, rec.Body.String(), `"Slot_1_3"`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/state", nil)
	rec := httptest.NewRecorder()
	f.srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
