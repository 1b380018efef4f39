package controllers

import (
	"net/http"

	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TwilioStatusCallback receives message status callbacks posted by Twilio
// as form values and records delivery receipts on the matching log row.
func (rc *ReminderController) TwilioStatusCallback(c *gin.Context) {
	sid := c.PostForm("MessageSid")
	status := c.PostForm("MessageStatus")
	if sid == "" || status == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "MessageSid and MessageStatus are required")
		return
	}

	if err := rc.Service.HandleDeliveryReceipt(c.Request.Context(), sid, status, c.PostForm("ErrorCode")); err != nil {
		// Twilio retries on non-2xx; an unknown sid will never match
		zlog.Warn("delivery receipt not recorded",
			zap.String("message_sid", sid),
			zap.String("status", status),
			zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
