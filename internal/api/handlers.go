package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"sidescroller/internal/render"
)

func (h *routerHandlers) handleGetHUD(w http.ResponseWriter, r *http.Request) {
	hud, ok := h.runs.HUD()
	if !ok {
		writeError(w, "No frame yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, hud)
}

func (h *routerHandlers) handleGetDifficulties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.runs.Difficulties())
}

func (h *routerHandlers) handleGetRun(w http.ResponseWriter, r *http.Request) {
	info, ok := h.runs.Current()
	if !ok {
		writeError(w, "No run started", http.StatusNotFound)
		return
	}
	writeJSON(w, info)
}

func (h *routerHandlers) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty string `json:"difficulty"`
	}

	// An empty body starts a run on the default difficulty.
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	info, err := h.runs.StartRun(req.Difficulty)
	if err != nil {
		h.logger.Error("❌ Run start failed", zap.Error(err))
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logger.Info("🎮 Run started via API",
		zap.String("run", info.ID),
		zap.String("difficulty", info.Profile.Name),
		zap.Bool("fellBack", info.FellBack),
	)
	writeJSON(w, info)
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.frames == nil {
		writeError(w, "Rendering disabled", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.frames.WritePNG(&buf); err != nil {
		if errors.Is(err, render.ErrNoFrame) {
			writeError(w, "No frame yet", http.StatusServiceUnavailable)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
