// Package handlers implements the JSON API consumed by the dashboard page.
// Handlers only read from the telemetry cache and the write-once stores;
// no hardware I/O ever happens here.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"kamsent/internal/models"
	"kamsent/internal/monitor"
	"kamsent/internal/profile"
)

// DashboardHandlers serves the live stats snapshot and the static host
// inventory endpoints.
type DashboardHandlers struct {
	facade   *monitor.Facade
	profiles *profile.Store
	sysinfo  models.SystemInfo
}

// NewDashboardHandlers wires the read-only dashboard endpoints.
func NewDashboardHandlers(facade *monitor.Facade, profiles *profile.Store, sysinfo models.SystemInfo) *DashboardHandlers {
	return &DashboardHandlers{facade: facade, profiles: profiles, sysinfo: sysinfo}
}

// APIStats returns the assembled metrics/history/warnings snapshot.
func (h *DashboardHandlers) APIStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Snapshot())
}

// APISystem returns the host inventory collected at startup.
func (h *DashboardHandlers) APISystem(c *gin.Context) {
	c.JSON(http.StatusOK, h.sysinfo)
}

// APIVersion returns the contents of version.json.
func (h *DashboardHandlers) APIVersion(c *gin.Context) {
	raw, err := h.profiles.LoadVersion()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read version file"})
		return
	}
	if raw == nil {
		c.JSON(http.StatusOK, profile.VersionInfo{})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// APIBaseline returns the write-once baseline snapshot, 404 before first run
// completes.
func (h *DashboardHandlers) APIBaseline(c *gin.Context) {
	h.serveRaw(c, h.profiles.LoadBaseline, "no baseline found")
}

// APIOriginalProfile returns the write-once hardware backup.
func (h *DashboardHandlers) APIOriginalProfile(c *gin.Context) {
	h.serveRaw(c, h.profiles.LoadOriginalProfile, "no original profile found")
}

func (h *DashboardHandlers) serveRaw(c *gin.Context, load func() (json.RawMessage, error), missing string) {
	raw, err := load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}
	if raw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": missing})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
