package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput is returned (wrapped) for every rejected draft or rule.
var ErrInvalidInput = errors.New("invalid input")

// accepted layouts for AppointmentDraft.Start, first match wins
var startLayouts = []string{
	StartLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Expand turns a draft and its recurrence rule into the ordered list of
// occurrences to persist. It either returns the whole series or an error.
func Expand(draft AppointmentDraft, rule RecurrenceRule) ([]GeneratedAppointment, error) {
	base, err := validate(draft, rule)
	if err != nil {
		return nil, err
	}

	count := 1
	if rule.Enabled {
		count = rule.OccurrenceCount
	}

	out := make([]GeneratedAppointment, 0, count)
	for i := 0; i < count; i++ {
		start := base
		if rule.Enabled {
			start = occurrence(base, rule.Frequency, i)
		}
		out = append(out, fromDraft(draft, start))
	}
	return out, nil
}

// ParseStart parses a wall-clock start value. The result is expressed in UTC
// so that the stored timestamp equals what the user typed.
func ParseStart(s string) (time.Time, error) {
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: start %q is not a valid date-time", ErrInvalidInput, s)
}

func validate(draft AppointmentDraft, rule RecurrenceRule) (time.Time, error) {
	if draft.DurationMinutes <= 0 {
		return time.Time{}, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, draft.DurationMinutes)
	}
	if draft.Fee.IsNegative() {
		return time.Time{}, fmt.Errorf("%w: fee must not be negative", ErrInvalidInput)
	}
	if draft.PayerType != PayerIndividual && draft.PayerType != PayerInsurance {
		return time.Time{}, fmt.Errorf("%w: unknown payer type %q", ErrInvalidInput, draft.PayerType)
	}

	base, err := ParseStart(draft.Start)
	if err != nil {
		return time.Time{}, err
	}

	if rule.Enabled {
		if rule.OccurrenceCount < 1 || rule.OccurrenceCount > MaxOccurrences {
			return time.Time{}, fmt.Errorf("%w: occurrence count must be between 1 and %d, got %d",
				ErrInvalidInput, MaxOccurrences, rule.OccurrenceCount)
		}
		switch rule.Frequency {
		case Weekly, Biweekly, Monthly:
		default:
			return time.Time{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, rule.Frequency)
		}
	}
	return base, nil
}

func occurrence(base time.Time, freq Frequency, i int) time.Time {
	switch freq {
	case Weekly:
		return base.AddDate(0, 0, 7*i)
	case Biweekly:
		return base.AddDate(0, 0, 14*i)
	default:
		return addMonthsClamped(base, i)
	}
}

// addMonthsClamped moves t forward n calendar months. When the day of month
// does not exist in the target month it is clamped to the month's last day
// (Jan 31 + 1 month = Feb 28/29), instead of rolling into the next month.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func fromDraft(draft AppointmentDraft, start time.Time) GeneratedAppointment {
	g := GeneratedAppointment{
		PatientID:       draft.PatientID,
		Start:           start,
		DurationMinutes: draft.DurationMinutes,
		Fee:             draft.Fee,
		PayerType:       draft.PayerType,
		Notes:           draft.Notes,
		Status:          StatusScheduled,
	}
	if draft.PayerType == PayerInsurance {
		g.InsurerName = draft.InsurerName
		g.InsurerPlan = draft.InsurerPlan
	}
	return g
}
