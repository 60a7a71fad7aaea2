package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kamsent/internal/warnings"
)

// ThresholdHandlers exposes the active threshold profile for reading,
// replacement, and reset to hardware defaults.
type ThresholdHandlers struct {
	store *warnings.Store
}

// NewThresholdHandlers wires the threshold endpoints.
func NewThresholdHandlers(store *warnings.Store) *ThresholdHandlers {
	return &ThresholdHandlers{store: store}
}

// APIGetThresholds returns the active profile.
func (h *ThresholdHandlers) APIGetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Current())
}

// APIUpdateThresholds replaces the whole profile. Validation failures reject
// the request with 400 and leave the active profile untouched; there is no
// partial update.
func (h *ThresholdHandlers) APIUpdateThresholds(c *gin.Context) {
	var submitted warnings.ThresholdProfile
	if err := c.ShouldBindJSON(&submitted); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold payload: " + err.Error()})
		return
	}
	// Preserve the detection provenance; clients only edit bounds.
	submitted.DetectedFrom = h.store.Current().DetectedFrom

	if err := h.store.Replace(submitted); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "thresholds": h.store.Current()})
}

// APIResetThresholds restores the hardware-derived defaults.
func (h *ThresholdHandlers) APIResetThresholds(c *gin.Context) {
	restored, err := h.store.Reset()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset thresholds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "thresholds": restored})
}
