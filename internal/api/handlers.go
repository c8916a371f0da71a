package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
	"github.com/pedro-modular/vibecode-pilot-game/internal/render"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Handler methods for routerHandlers

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot, no engine lock taken
	writeJSON(w, http.StatusOK, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tick":       snap.TickNumber,
		"ships":      snap.ShipCount,
		"hazards":    len(snap.Hazards),
		"celestials": len(snap.Celestials),
		"grid":       snap.Grid,
		"paused":     snap.Session.Paused,
		"eventLog":   h.engine.EventLogStats(),
		"limits":     h.engine.Limits(),
	})
}

func (h *routerHandlers) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Environment())
}

func (h *routerHandlers) handleGetSectors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Sectors())
}

func (h *routerHandlers) handleGetActiveSector(w http.ResponseWriter, r *http.Request) {
	p, err := parsePosition(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sector, ok := h.engine.ActiveSector(p)
	if !ok {
		writeError(w, "no sectors", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sector)
}

func (h *routerHandlers) handleGetHazards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Hazards())
}

func (h *routerHandlers) handleAddHazard(w http.ResponseWriter, r *http.Request) {
	var hz environment.Hazard
	if !decodeJSON(w, r, &hz) {
		return
	}
	hz.ID = ""

	id, err := h.engine.AddHazard(hz)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("☢️ Hazard added via API: %s (%s)", id, hz.Type)
	writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

func (h *routerHandlers) handleRemoveHazard(w http.ResponseWriter, r *http.Request) {
	id := environment.HazardID(chi.URLParam(r, "id"))
	if err := h.engine.RemoveHazard(id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleGetCelestials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.CelestialObjects())
}

func (h *routerHandlers) handleAddCelestial(w http.ResponseWriter, r *http.Request) {
	var obj environment.CelestialObject
	if !decodeJSON(w, r, &obj) {
		return
	}
	obj.ID = ""

	id, err := h.engine.AddCelestialObject(obj)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("🪐 Celestial added via API: %s (%s)", id, obj.Type)
	writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

func (h *routerHandlers) handleGetShips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Ships())
}

func (h *routerHandlers) handleGetShip(w http.ResponseWriter, r *http.Request) {
	ship, ok := h.engine.Ship(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, game.ErrShipNotFound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ship)
}

func (h *routerHandlers) handleAddShip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ship, err := h.engine.AddShip(req.Name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ship)
}

func (h *routerHandlers) handleRemoveShip(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RemoveShip(chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleSetControls(w http.ResponseWriter, r *http.Request) {
	var c game.Controls
	if !decodeJSON(w, r, &c) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.engine.SetControls(id, c); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"controls": c.Clamp(),
	})
}

func (h *routerHandlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Session())
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused *bool `json:"paused"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	// No body field toggles
	paused := !h.engine.Session().Paused
	if req.Paused != nil {
		paused = *req.Paused
	}
	writeJSON(w, http.StatusOK, h.engine.SetPaused(paused))
}

func (h *routerHandlers) handleScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int64 `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.AddScore(req.Delta))
}

func (h *routerHandlers) handleMap(w http.ResponseWriter, r *http.Request) {
	size := h.mapSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, "size must be an integer", http.StatusBadRequest)
			return
		}
		size = n
	}
	labels := r.URL.Query().Get("labels") != "0"

	env := h.engine.Environment()
	ships := h.engine.Ships()
	scene := render.Scene{
		Boundary:   env.Boundary,
		Sectors:    env.Sectors,
		Hazards:    env.Hazards,
		Celestials: env.CelestialObjects,
		Ships:      make([]render.ShipMarker, 0, len(ships)),
	}
	for _, s := range ships {
		scene.Ships = append(scene.Ships, render.ShipMarker{Name: s.Name, Position: s.Position})
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := render.NewMapRenderer(size, labels).WritePNG(&buf, scene); err != nil {
		log.Printf("❌ Map render failed: %v", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// Helper functions (package-level for reuse)

func parsePosition(r *http.Request) (vector.Vector3D, error) {
	q := r.URL.Query()
	var out [3]float64
	for i, key := range [...]string{"x", "y", "z"} {
		v := q.Get(key)
		if v == "" {
			return vector.Vector3D{}, errors.New("x, y and z are required")
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return vector.Vector3D{}, errors.New(key + " must be a number")
		}
		out[i] = f
	}
	return vector.New(out[0], out[1], out[2]), nil
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// untouched. On failure it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrShipNotFound), errors.Is(err, game.ErrHazardNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidHazard), errors.Is(err, game.ErrInvalidCelestial),
		errors.Is(err, game.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrShipLimit), errors.Is(err, game.ErrHazardLimit),
		errors.Is(err, game.ErrCelestialLimit):
		// DoS protection limits
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeEngineError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("❌ Engine error: %v", err)
	}
	writeError(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
