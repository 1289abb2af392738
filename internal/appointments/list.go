package appointments

import (
	"context"
	"sort"
	"strings"
)

// ListFilter narrows the appointment listing. Zero values mean "no filter".
type ListFilter struct {
	StartDate     string
	EndDate       string
	Date          string
	Doctor        string
	Status        Status
	PatientID     string
	Search        string
	Type          *int
	IncludeUnpaid bool
	Anonymize     bool
}

// List returns non-deleted appointments matching the filter, ordered by
// date then time. Anonymize replaces patient identity with "Occupied" for
// the public availability view.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	var records []Appointment
	if err := s.store.Load(ctx, Collection, &records); err != nil {
		return nil, err
	}

	out := make([]Appointment, 0, len(records))
	for _, apt := range records {
		if apt.Deleted {
			continue
		}
		if !matches(apt, filter) {
			continue
		}
		if filter.Anonymize {
			apt.PatientID = ""
			apt.PatientName = "Occupied"
			apt.Notes = ""
			apt.CustomType = ""
		}
		out = append(out, apt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return timeToMinutes(out[i].Time) < timeToMinutes(out[j].Time)
	})
	return out, nil
}

func matches(apt Appointment, f ListFilter) bool {
	if f.Date != "" && apt.Date != f.Date {
		return false
	}
	if f.StartDate != "" && apt.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && apt.Date > f.EndDate {
		return false
	}
	if f.Doctor != "" && apt.Doctor != f.Doctor {
		return false
	}
	if f.Status != "" && apt.Status != f.Status {
		return false
	}
	if f.PatientID != "" && apt.PatientID != f.PatientID {
		return false
	}
	if f.Type != nil && apt.Type != *f.Type {
		return false
	}
	if f.Anonymize && !f.IncludeUnpaid {
		// The public calendar only shows slots that actually block
		// new bookings; unconfirmed or unpaid ones do not.
		if apt.Status == StatusPending || apt.Status == StatusCancelled || apt.PaymentStatus == PaymentUnpaid {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := strings.ToLower(apt.PatientName + " " + apt.Doctor + " " + apt.Notes + " " + TypeName(apt.Type, apt.CustomType))
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}
