package controllers

import (
	"net/http"

	"clinicpro-backend/models"
	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/services"
	"clinicpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SendReminderInput struct {
	AppointmentID uuid.UUID           `json:"appointmentId" binding:"required"`
	Kind          models.ReminderKind `json:"kind" binding:"omitempty,oneof=FIRST_REMINDER SECOND_REMINDER THIRD_REMINDER IMMEDIATE"`
	CustomMessage string              `json:"customMessage"`
	Channels      []models.Channel    `json:"channels" binding:"omitempty,dive,oneof=whatsapp sms email"`
}

// SendReminder dispatches a notification right away, bypassing the scheduler
func (rc *ReminderController) SendReminder(c *gin.Context) {
	var input SendReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	appt, err := rc.Service.LoadAppointment(ctx, input.AppointmentID)
	if err != nil {
		respondStoreError(c, err, "Appointment", "Failed to load appointment")
		return
	}

	outcomes, err := rc.Service.SendImmediateNotification(ctx, appt, input.Kind, input.CustomMessage, input.Channels)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Reminder sent", "results": outcomes})
	case errors.Is(err, services.ErrDispatchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "results": outcomes})
	case errors.Is(err, services.ErrRemindersDisabled), errors.Is(err, services.ErrChannelDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "results": outcomes})
	case errors.Is(err, services.ErrInvalidReminderKind):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		zlog.Error("immediate reminder failed", zap.String("appointment_id", appt.ID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send reminder")
	}
}

// ScheduleAppointmentReminders computes reminders for a newly booked appointment
func (rc *ReminderController) ScheduleAppointmentReminders(c *gin.Context) {
	rc.schedule(c, false)
}

// RescheduleAppointmentReminders replaces the reminders of a moved appointment
func (rc *ReminderController) RescheduleAppointmentReminders(c *gin.Context) {
	rc.schedule(c, true)
}

func (rc *ReminderController) schedule(c *gin.Context, replace bool) {
	apptID, ok := parseIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	appt, err := rc.Service.LoadAppointment(ctx, apptID)
	if err != nil {
		respondStoreError(c, err, "Appointment", "Failed to load appointment")
		return
	}

	var schedules []models.ReminderSchedule
	if replace {
		schedules, err = rc.Service.RescheduleReminders(ctx, appt)
	} else {
		schedules, err = rc.Service.ScheduleReminders(ctx, appt)
	}
	if err != nil {
		zlog.Error("schedule reminders failed", zap.String("appointment_id", apptID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to schedule reminders")
		return
	}
	if schedules == nil {
		schedules = []models.ReminderSchedule{}
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// CancelAppointmentReminders removes every reminder of a cancelled appointment
func (rc *ReminderController) CancelAppointmentReminders(c *gin.Context) {
	apptID, ok := parseIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	n, err := rc.Service.CancelReminders(c.Request.Context(), apptID)
	if err != nil {
		zlog.Error("cancel reminders failed", zap.String("appointment_id", apptID.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel reminders")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminders cancelled", "deleted": n})
}

// GetAppointmentSchedules lists the reminder schedules of an appointment
func (rc *ReminderController) GetAppointmentSchedules(c *gin.Context) {
	apptID, ok := parseIDParam(c, "id", "appointment")
	if !ok {
		return
	}

	schedules, err := rc.Service.ListSchedules(c.Request.Context(), apptID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve schedules")
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// ResendSchedule requeues a failed or cancelled reminder
func (rc *ReminderController) ResendSchedule(c *gin.Context) {
	scheduleID, ok := parseIDParam(c, "id", "schedule")
	if !ok {
		return
	}

	sc, err := rc.Service.ResendSchedule(c.Request.Context(), scheduleID)
	if errors.Is(err, services.ErrNotResendable) {
		utils.RespondWithError(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondStoreError(c, err, "Schedule", "Failed to requeue schedule")
		return
	}

	c.JSON(http.StatusOK, sc)
}
