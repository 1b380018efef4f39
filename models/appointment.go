package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
)

type Appointment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	PatientID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"patientId"`
	PractitionerID uuid.UUID  `gorm:"type:uuid;index;not null" json:"practitionerId"`
	ServiceID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"serviceId"`
	RoomID         *uuid.UUID `gorm:"type:uuid;index" json:"roomId,omitempty"`

	StartsAt time.Time `gorm:"not null;index" json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Status   string    `gorm:"type:varchar(20);not null" json:"status"`
	Notes    string    `json:"notes"`

	Patient      Patient      `gorm:"foreignKey:PatientID" json:"patient"`
	Practitioner Practitioner `gorm:"foreignKey:PractitionerID" json:"practitioner"`
	Service      Service      `gorm:"foreignKey:ServiceID" json:"service"`
	Room         *Room        `gorm:"foreignKey:RoomID" json:"room,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

func (a Appointment) RoomName() string {
	if a.Room == nil {
		return ""
	}
	return a.Room.Name
}
