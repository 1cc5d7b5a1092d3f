package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cuegrid/internal/cache"
	"cuegrid/internal/events"
	"cuegrid/internal/media"
	"cuegrid/internal/playback"
	"cuegrid/internal/slots"
	"cuegrid/internal/streaming"
)

const Version = "0.1.0"

// Handler exposes the control surface the operator UI drives: slot and
// trigger clicks, assignment, state, previews and the event stream.
type Handler struct {
	engine   *playback.Engine
	grid     *slots.Grid
	bus      *events.Bus
	streamer *streaming.Handler
	prober   *media.Prober
	previews *media.PreviewGenerator
	cache    *cache.LRU[[]byte]
	logger   zerolog.Logger
}

func NewHandler(
	engine *playback.Engine,
	grid *slots.Grid,
	bus *events.Bus,
	prober *media.Prober,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		engine:   engine,
		grid:     grid,
		bus:      bus,
		streamer: streaming.NewHandler(),
		prober:   prober,
		logger:   logger,
	}
}

// SetPreviews attaches the preview generator and its byte cache.
func (h *Handler) SetPreviews(gen *media.PreviewGenerator, c *cache.LRU[[]byte]) {
	h.previews = gen
	h.cache = c
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.State())
}

func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	all := h.grid.Snapshot()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Column != all[j].Column {
			return all[i].Column < all[j].Column
		}
		return all[i].Row < all[j].Row
	})
	writeJSON(w, http.StatusOK, GridResponse{Slots: all})
}

func (h *Handler) ClickSlot(w http.ResponseWriter, r *http.Request) {
	col, row, ok := slotParams(w, r)
	if !ok {
		return
	}

	if err := h.engine.ClickSlot(col, row); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClickResponse{
		Key:    string(playback.SlotKeyFor(col, row)),
		Status: "ok",
	})
}

func (h *Handler) ClickTrigger(w http.ResponseWriter, r *http.Request) {
	col, ok := columnParam(w, r)
	if !ok {
		return
	}

	if err := h.engine.ClickTrigger(col); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClickResponse{
		Key:    string(playback.TriggerKeyFor(col)),
		Status: "ok",
	})
}

func (h *Handler) StopTrigger(w http.ResponseWriter, r *http.Request) {
	col, ok := columnParam(w, r)
	if !ok {
		return
	}

	if err := h.engine.StopTrigger(col); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClickResponse{
		Key:    string(playback.TriggerKeyFor(col)),
		Status: "ok",
	})
}

func (h *Handler) StopAll(w http.ResponseWriter, r *http.Request) {
	h.engine.StopAll()
	writeJSON(w, http.StatusOK, ClickResponse{Status: "ok"})
}

func (h *Handler) AssignSlot(w http.ResponseWriter, r *http.Request) {
	col, row, ok := slotParams(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	asset := media.Asset{
		Path:     req.Path,
		Text:     req.Text,
		Speed:    req.Speed,
		Opacity:  req.Opacity,
		Volume:   req.Volume,
		Scale:    req.Scale,
		Rotation: req.Rotation,
	}
	if asset.Text == nil && asset.Path != "" && h.prober != nil && h.prober.IsAvailable() {
		if kind := media.KindForFile(asset.Path); kind.Timed() {
			if meta, err := h.prober.Probe(asset.Path); err == nil {
				asset.Duration = meta.Duration
			}
		}
	}

	// Replacing an asset invalidates any playback state the old one had.
	h.engine.PruneSlot(col, row)

	slot, err := h.grid.Assign(col, row, asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	h.logger.Info().
		Int("column", col).
		Int("row", row).
		Str("path", req.Path).
		Msg("slot assigned")

	writeJSON(w, http.StatusOK, AssignResponse{Slot: *slot})
}

func (h *Handler) ClearSlot(w http.ResponseWriter, r *http.Request) {
	col, row, ok := slotParams(w, r)
	if !ok {
		return
	}

	h.engine.PruneSlot(col, row)
	if !h.grid.Clear(col, row) {
		writeError(w, http.StatusNotFound, "SLOT_EMPTY", "Slot has no asset")
		return
	}

	writeJSON(w, http.StatusOK, ClickResponse{
		Key:    string(playback.SlotKeyFor(col, row)),
		Status: "cleared",
	})
}

func (h *Handler) StreamSlotMedia(w http.ResponseWriter, r *http.Request) {
	col, row, ok := slotParams(w, r)
	if !ok {
		return
	}

	asset := h.grid.Asset(col, row)
	if asset == nil || asset.Path == "" {
		writeError(w, http.StatusNotFound, "SLOT_EMPTY", "Slot has no media file")
		return
	}

	h.streamer.ServeFile(w, r, asset.Path)
}

func (h *Handler) GetSlotPreview(w http.ResponseWriter, r *http.Request) {
	col, row, ok := slotParams(w, r)
	if !ok {
		return
	}

	if h.previews == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Preview generation not available")
		return
	}

	asset := h.grid.Asset(col, row)
	if asset == nil || !asset.Kind.Visual() || asset.Path == "" {
		writeError(w, http.StatusNotFound, "PREVIEW_NOT_FOUND", "No previewable asset in slot")
		return
	}

	cacheKey := asset.Path
	if h.cache != nil {
		if data, ok := h.cache.Get(cacheKey); ok {
			servePreview(w, data)
			return
		}
	}

	id := fmt.Sprintf("slot_%d_%d", col, row)
	path, err := h.previews.Generate(asset.Path, id, asset.Duration)
	if err != nil {
		h.logger.Warn().Err(err).Int("column", col).Int("row", row).Msg("preview generation failed")
		writeError(w, http.StatusNotFound, "PREVIEW_NOT_FOUND", "Preview not available")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read preview")
		return
	}
	if h.cache != nil {
		h.cache.Set(cacheKey, data)
	}
	servePreview(w, data)
}

// Events streams presentation events as server-sent events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming not supported")
		return
	}

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func slotParams(w http.ResponseWriter, r *http.Request) (col, row int, ok bool) {
	col, err1 := strconv.Atoi(chi.URLParam(r, "col"))
	row, err2 := strconv.Atoi(chi.URLParam(r, "row"))
	if err1 != nil || err2 != nil || col < 1 || row < 1 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Slot coordinates must be positive integers")
		return 0, 0, false
	}
	return col, row, true
}

func columnParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	col, err := strconv.Atoi(chi.URLParam(r, "col"))
	if err != nil || col < 1 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Trigger column must be a positive integer")
		return 0, false
	}
	return col, true
}

func writePlaybackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, playback.ErrDuplicateAudio):
		writeError(w, http.StatusConflict, "DUPLICATE_AUDIO", err.Error())
	case errors.Is(err, playback.ErrAmbiguousTrigger):
		writeError(w, http.StatusConflict, "AMBIGUOUS_TRIGGER", err.Error())
	case errors.Is(err, playback.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, "ASSET_NOT_FOUND", err.Error())
	case errors.Is(err, playback.ErrDecodeFailure):
		writeError(w, http.StatusUnprocessableEntity, "DECODE_FAILURE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func servePreview(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
