package appointments

import (
	"strconv"
	"strings"
)

const defaultDuration = 60

// timeToMinutes converts "HH:MM" to minutes since midnight. Malformed
// components parse as zero, matching how the booking data has historically
// been handled.
func timeToMinutes(timeStr string) int {
	if timeStr == "" {
		return 0
	}
	parts := strings.SplitN(timeStr, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes := 0
	if len(parts) > 1 {
		minutes, _ = strconv.Atoi(parts[1])
	}
	return hours*60 + minutes
}

// HasConflict reports whether a candidate slot overlaps another active
// appointment. Candidate and existing slots are half-open intervals, so
// back-to-back bookings that share an endpoint do not conflict.
//
// Pending and unpaid appointments never block a slot: they only reserve it
// once a deposit or full payment exists. When both the candidate and an
// existing appointment name a doctor, only matching doctors can collide;
// an empty-doctor candidate is checked against every appointment. Note the
// asymmetry this produces: an existing unassigned appointment also blocks
// every doctor, which can double-book a specific doctor against an
// unassigned slot.
func HasConflict(existing []Appointment, date, timeStr string, duration int, doctor, excludeID string) bool {
	newStart := timeToMinutes(timeStr)
	if duration <= 0 {
		duration = defaultDuration
	}
	newEnd := newStart + duration

	for _, apt := range existing {
		if apt.Deleted ||
			apt.ID == excludeID ||
			apt.Date != date ||
			apt.Status == StatusCancelled ||
			apt.PaymentStatus == PaymentUnpaid ||
			apt.Status == StatusPending {
			continue
		}

		if doctor != "" && apt.Doctor != "" && doctor != apt.Doctor {
			continue
		}

		aptStart := timeToMinutes(apt.Time)
		aptDuration := apt.Duration
		if aptDuration <= 0 {
			aptDuration = defaultDuration
		}
		aptEnd := aptStart + aptDuration

		if newStart < aptEnd && newEnd > aptStart {
			return true
		}
	}
	return false
}
