package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedless/rss-dedup/app/cfg"
	"github.com/feedless/rss-dedup/app/tasks"
)

type Handler struct {
	orchestrator tasks.OrchestratorInterface
	outputDir    string
	targetOPML   string
}

func NewHandler(orchestrator tasks.OrchestratorInterface) *Handler {
	c := cfg.Get()
	return &Handler{
		orchestrator: orchestrator,
		outputDir:    c.OutputDir,
		targetOPML:   c.TargetOPML,
	}
}

// GetFeed serves one republished feed document by its output filename.
func (h *Handler) GetFeed(c *gin.Context) {
	// Base strips any path traversal out of the parameter.
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(h.outputDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", data)
}

// GetOPML serves the merged subscription list for newsreader import.
func (h *Handler) GetOPML(c *gin.Context) {
	data, err := os.ReadFile(h.targetOPML)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription list not written yet"})
		return
	}

	c.Data(http.StatusOK, "text/x-opml; charset=utf-8", data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": cfg.Get().Version,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.orchestrator.GetStats()

	var lastPurge string
	if !stats.LastPurge.IsZero() {
		lastPurge = stats.LastPurge.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":      stats.Feeds,
		"claims":     stats.Claims,
		"iterations": stats.Iterations,
		"last_purge": lastPurge,
	})
}
