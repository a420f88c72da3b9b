// Package handlers implements the read-only endpoints of the serve facade.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"

	"github.com/swinglab/swingscan/internal/metrics"
	"github.com/swinglab/swingscan/internal/report"
	"github.com/swinglab/swingscan/pkg/logger"
)

// 경로 조작 차단: 파일명 형태의 CSV만 통과
var runNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+\.csv$`)

// RunsHandler serves the CSV artifacts under the output directory.
// ⭐ SSOT: 실행 결과 API 핸들러는 이 구조체에서만
type RunsHandler struct {
	dir     string
	cache   *cache.Cache
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler. Parsed files are cached
// briefly so a dashboard polling the same run does not re-read the disk.
func NewRunsHandler(dir string, m *metrics.Metrics, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		dir:     dir,
		cache:   cache.New(30*time.Second, time.Minute),
		metrics: m,
		logger:  log,
	}
}

// RunInfo describes one artifact in the listing.
type RunInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// List returns the CSV artifacts in the output directory
// GET /api/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondJSON(w, http.StatusOK, map[string]interface{}{"runs": []RunInfo{}, "count": 0})
			return
		}
		h.logger.WithError(err).Error("Failed to list output directory")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	runs := make([]RunInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		runs = append(runs, RunInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	// 최근 결과 먼저
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Modified.Equal(runs[j].Modified) {
			return runs[i].Modified.After(runs[j].Modified)
		}
		return runs[i].Name < runs[j].Name
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Get returns one artifact parsed into header-keyed rows
// GET /api/runs/{name}?limit=N
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !runNameRe.MatchString(name) || name != filepath.Base(name) {
		respondError(w, http.StatusBadRequest, "Invalid run name")
		return
	}

	rows, ok := h.cachedRows(name)
	if !ok {
		var err error
		rows, err = report.ReadRows(filepath.Join(h.dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				respondError(w, http.StatusNotFound, "Run not found")
				return
			}
			h.logger.WithError(err).WithField("run", name).Error("Failed to read run")
			respondError(w, http.StatusInternalServerError, "Failed to read run")
			return
		}
		h.cache.Set(name, rows, cache.DefaultExpiration)
	}

	total := len(rows)

	// Optional row cap
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n >= 0 && n < len(rows) {
			rows = rows[:n]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":  name,
		"total": total,
		"count": len(rows),
		"rows":  rows,
	})
}

// cachedRows looks a parsed run up, counting hits and misses.
func (h *RunsHandler) cachedRows(name string) ([]map[string]string, bool) {
	cached, ok := h.cache.Get(name)
	if !ok {
		h.metrics.CacheMisses.Inc()
		return nil, false
	}
	h.metrics.CacheHits.Inc()
	return cached.([]map[string]string), true
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
