package controllers

import (
	"net/http"

	"clinicpro-backend/models"
	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetReminderConfig returns the live reminder configuration
func (rc *ReminderController) GetReminderConfig(c *gin.Context) {
	cfg, err := rc.Configs.Get(c.Request.Context())
	if err != nil {
		zlog.Error("load reminder config failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateReminderConfig applies a partial update. Only the fields present in
// the body change.
func (rc *ReminderController) UpdateReminderConfig(c *gin.Context) {
	var patch models.ReminderConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if err := patch.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := rc.Configs.Update(c.Request.Context(), patch)
	if err != nil {
		zlog.Error("update reminder config failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder configuration")
		return
	}

	if userID, ok := c.Get("userId"); ok {
		zlog.Info("reminder config updated", zap.Any("user_id", userID), zap.Bool("enabled", cfg.Enabled))
	}
	c.JSON(http.StatusOK, cfg)
}
