package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (rc *ReminderController) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, rc.Scheduler.Status())
}

// ProcessNow runs one pass over due reminders and waits for it
func (rc *ReminderController) ProcessNow(c *gin.Context) {
	// the pass is detached from the request and survives a client disconnect
	report := rc.Scheduler.ProcessNow(c.Request.Context())
	if report.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": report.Error, "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (rc *ReminderController) StartScheduler(c *gin.Context) {
	rc.Scheduler.Start()
	c.JSON(http.StatusOK, rc.Scheduler.Status())
}

func (rc *ReminderController) StopScheduler(c *gin.Context) {
	// in-flight pass finishes in the background
	_ = rc.Scheduler.Stop()
	c.JSON(http.StatusOK, rc.Scheduler.Status())
}
