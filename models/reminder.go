package models

// ReminderKind identifies which reminder a template or schedule belongs to.
type ReminderKind string

const (
	KindFirstReminder  ReminderKind = "FIRST_REMINDER"
	KindSecondReminder ReminderKind = "SECOND_REMINDER"
	KindThirdReminder  ReminderKind = "THIRD_REMINDER"
	KindImmediate      ReminderKind = "IMMEDIATE"
)

// ScheduledKinds are the offset based reminders computed for every appointment.
var ScheduledKinds = []ReminderKind{KindFirstReminder, KindSecondReminder, KindThirdReminder}

func (k ReminderKind) Valid() bool {
	switch k {
	case KindFirstReminder, KindSecondReminder, KindThirdReminder, KindImmediate:
		return true
	}
	return false
}

// Channel is a communication medium.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
)

// Channels lists every channel in fallback order.
var Channels = []Channel{ChannelWhatsApp, ChannelSMS, ChannelEmail}

func (c Channel) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelSMS, ChannelEmail:
		return true
	}
	return false
}

type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "PENDING"
	ScheduleStatusSending   ScheduleStatus = "SENDING"
	ScheduleStatusSent      ScheduleStatus = "SENT"
	ScheduleStatusFailed    ScheduleStatus = "FAILED"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
)

type LogStatus string

const (
	LogStatusSent      LogStatus = "SENT"
	LogStatusFailed    LogStatus = "FAILED"
	LogStatusDelivered LogStatus = "DELIVERED"
	LogStatusRead      LogStatus = "READ"
)

// Delivered reports whether the message left the provider successfully.
func (s LogStatus) Delivered() bool {
	return s == LogStatusSent || s == LogStatusDelivered || s == LogStatusRead
}

// receiptRank orders log statuses as provider receipts move them forward.
// READ and FAILED are final.
func (s LogStatus) receiptRank() int {
	switch s {
	case LogStatusSent:
		return 1
	case LogStatusDelivered:
		return 2
	case LogStatusRead, LogStatusFailed:
		return 3
	}
	return 0
}

// Precedes reports whether a receipt may move a log from s to next.
func (s LogStatus) Precedes(next LogStatus) bool {
	return s.receiptRank() < next.receiptRank()
}

// ReceiptPredecessors lists the statuses a receipt for s may overwrite.
func (s LogStatus) ReceiptPredecessors() []LogStatus {
	var out []LogStatus
	for _, st := range []LogStatus{LogStatusSent, LogStatusDelivered, LogStatusRead, LogStatusFailed} {
		if st.Precedes(s) {
			out = append(out, st)
		}
	}
	return out
}
