// controllers/reminder.go
package controllers

import (
	"net/http"
	"time"

	"clinicpro-backend/models"
	"clinicpro-backend/pkg/zlog"
	"clinicpro-backend/services"
	"clinicpro-backend/store"
	"clinicpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ReminderController exposes reminder administration to operators.
type ReminderController struct {
	Service   *services.ReminderService
	Scheduler *services.Scheduler
	Configs   store.ConfigStore
	Templates store.TemplateStore
	Location  *time.Location
}

// CreateReminderTemplateInput defines the expected JSON structure
type CreateReminderTemplateInput struct {
	Name     string              `json:"name" binding:"required"`
	Kind     models.ReminderKind `json:"kind" binding:"required,oneof=FIRST_REMINDER SECOND_REMINDER THIRD_REMINDER IMMEDIATE"`
	Channel  models.Channel      `json:"channel" binding:"required,oneof=whatsapp sms email"`
	Subject  string              `json:"subject"`
	Content  string              `json:"content" binding:"required"`
	IsActive *bool               `json:"isActive"`
}

// UpdateReminderTemplateInput defines the expected JSON structure
type UpdateReminderTemplateInput struct {
	Name     *string              `json:"name"`
	Kind     *models.ReminderKind `json:"kind" binding:"omitempty,oneof=FIRST_REMINDER SECOND_REMINDER THIRD_REMINDER IMMEDIATE"`
	Channel  *models.Channel      `json:"channel" binding:"omitempty,oneof=whatsapp sms email"`
	Subject  *string              `json:"subject"`
	Content  *string              `json:"content"`
	IsActive *bool                `json:"isActive"`
}

// CreateReminderTemplate creates a new reminder template
func (rc *ReminderController) CreateReminderTemplate(c *gin.Context) {
	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template := models.ReminderTemplate{
		ID:       uuid.New(),
		Name:     input.Name,
		Kind:     input.Kind,
		Channel:  input.Channel,
		Subject:  input.Subject,
		Content:  input.Content,
		IsActive: true,
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := rc.Templates.Create(c.Request.Context(), &template); err != nil {
		respondStoreError(c, err, "Template", "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetReminderTemplates lists templates, optionally filtered by kind, channel and active flag
func (rc *ReminderController) GetReminderTemplates(c *gin.Context) {
	filter := store.TemplateFilter{
		Kind:    models.ReminderKind(c.Query("kind")),
		Channel: models.Channel(c.Query("channel")),
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}

	templates, err := rc.Templates.List(c.Request.Context(), filter)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// GetReminderTemplate retrieves a specific template by ID
func (rc *ReminderController) GetReminderTemplate(c *gin.Context) {
	templateUUID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	template, err := rc.Templates.FindByID(c.Request.Context(), templateUUID)
	if err != nil {
		respondStoreError(c, err, "Template", "Database error")
		return
	}

	c.JSON(http.StatusOK, template)
}

// UpdateReminderTemplate updates an existing template
func (rc *ReminderController) UpdateReminderTemplate(c *gin.Context) {
	templateUUID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, err := rc.Templates.FindByID(c.Request.Context(), templateUUID)
	if err != nil {
		respondStoreError(c, err, "Template", "Database error")
		return
	}

	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Kind != nil {
		template.Kind = *input.Kind
	}
	if input.Channel != nil {
		template.Channel = *input.Channel
	}
	if input.Subject != nil {
		template.Subject = *input.Subject
	}
	if input.Content != nil {
		template.Content = *input.Content
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := rc.Templates.Update(c.Request.Context(), template); err != nil {
		respondStoreError(c, err, "Template", "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteReminderTemplate deletes a template
func (rc *ReminderController) DeleteReminderTemplate(c *gin.Context) {
	templateUUID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	if err := rc.Templates.Delete(c.Request.Context(), templateUUID); err != nil {
		respondStoreError(c, err, "Template", "Failed to delete template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

type PreviewTemplateInput struct {
	AppointmentID uuid.UUID `json:"appointmentId" binding:"required"`
}

// PreviewReminderTemplate renders a template against an appointment
func (rc *ReminderController) PreviewReminderTemplate(c *gin.Context) {
	templateUUID, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	var input PreviewTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	subject, content, err := rc.Service.PreviewTemplate(c.Request.Context(), templateUUID, input.AppointmentID)
	if err != nil {
		respondStoreError(c, err, "Template or appointment", "Failed to render template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subject": subject, "content": content})
}

func parseIDParam(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func respondStoreError(c *gin.Context, err error, subject, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, subject+" not found")
	case errors.Is(err, store.ErrConflict):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	default:
		zlog.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
