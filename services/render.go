package services

import (
	"regexp"

	"clinicpro-backend/config"
	"clinicpro-backend/models"
)

var placeholderRegex = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render substitutes every {name} placeholder found in vars. Placeholders
// without a matching variable are left verbatim.
func Render(template string, vars map[string]string) string {
	if template == "" {
		return ""
	}
	return placeholderRegex.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

const (
	dateLayout = "Monday, January 2, 2006"
	timeLayout = "15:04"
)

// TemplateVariables builds the fixed placeholder set for an appointment.
func TemplateVariables(appt *models.Appointment, clinic config.ClinicInfo) map[string]string {
	loc := clinic.Location
	if loc == nil {
		loc = appt.StartsAt.Location()
	}
	start := appt.StartsAt.In(loc)
	return map[string]string{
		"patientName":      appt.Patient.Name,
		"practitionerName": appt.Practitioner.Name,
		"serviceName":      appt.Service.Name,
		"date":             start.Format(dateLayout),
		"time":             start.Format(timeLayout),
		"roomName":         appt.RoomName(),
		"clinicName":       clinic.Name,
		"clinicAddress":    clinic.Address,
		"clinicPhone":      clinic.Phone,
	}
}
