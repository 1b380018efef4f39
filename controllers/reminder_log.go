package controllers

import (
	"net/http"
	"strconv"

	"clinicpro-backend/models"
	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/store"
	"clinicpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetReminderLogs returns the delivery log, newest first, paginated
func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	filter, ok := rc.bindLogFilter(c)
	if !ok {
		return
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	logs, total, err := rc.Service.ListLogs(c.Request.Context(), filter)
	if err != nil {
		zlog.Error("list reminder logs failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	page, size := filter.Paging()
	c.JSON(http.StatusOK, utils.Page[models.ReminderLog]{
		Items:    logs,
		Total:    total,
		Page:     page,
		PageSize: size,
	})
}

// GetReminderStats aggregates the delivery log over an optional date range
func (rc *ReminderController) GetReminderStats(c *gin.Context) {
	filter, ok := rc.bindLogFilter(c)
	if !ok {
		return
	}

	stats, err := rc.Service.Stats(c.Request.Context(), filter)
	if err != nil {
		zlog.Error("reminder stats failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute reminder statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetChannels reports which channels have a configured provider and which
// are enabled in the configuration.
func (rc *ReminderController) GetChannels(c *gin.Context) {
	cfg, err := rc.Configs.Get(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder configuration")
		return
	}

	type channelInfo struct {
		Channel    models.Channel `json:"channel"`
		Configured bool           `json:"configured"`
		Enabled    bool           `json:"enabled"`
		IsDefault  bool           `json:"isDefault"`
	}
	configured := map[models.Channel]bool{}
	for _, ch := range rc.Service.Registry().ConfiguredChannels() {
		configured[ch] = true
	}

	out := make([]channelInfo, 0, len(models.Channels))
	for _, ch := range models.Channels {
		out = append(out, channelInfo{
			Channel:    ch,
			Configured: configured[ch],
			Enabled:    cfg.ChannelEnabled(ch),
			IsDefault:  cfg.DefaultChannel == ch,
		})
	}
	c.JSON(http.StatusOK, gin.H{"channels": out})
}

func (rc *ReminderController) bindLogFilter(c *gin.Context) (store.LogFilter, bool) {
	var filter store.LogFilter

	if ch := c.Query("channel"); ch != "" {
		filter.Channel = models.Channel(ch)
		if !filter.Channel.Valid() {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid channel")
			return filter, false
		}
	}
	if st := c.Query("status"); st != "" {
		filter.Status = models.LogStatus(st)
	}
	if id := c.Query("appointmentId"); id != "" {
		apptID, err := uuid.Parse(id)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
			return filter, false
		}
		filter.AppointmentID = &apptID
	}

	from, err := utils.ParseDateParam(c.Query("from"), rc.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return filter, false
	}
	to, err := utils.ParseDateParam(c.Query("to"), rc.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return filter, false
	}
	// a bare date as upper bound covers that whole day; To is exclusive
	if to != nil && len(c.Query("to")) == len("2006-01-02") {
		end := utils.NextDay(*to)
		to = &end
	}
	filter.From, filter.To = from, to
	return filter, true
}
