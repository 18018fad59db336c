package application

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	"github.com/hotelops/roster/internal/schedule/domain"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// Rule codes attached to legal findings.
const (
	codeAdvanceNotice   = "advance-notice"
	codeWeeklyHours     = "max-weekly-hours"
	codeDailyHours      = "max-daily-hours"
	codeConsecutiveDays = "max-consecutive-days"
)

// ValidateLegal checks a plan against the effective labor constraints.
// Advance-notice breaches warn; hour-cap breaches are errors. Consecutive-day
// breaches warn, except under intermittent mode where continuous work
// patterns are blocked outright. The plan is invalid iff any ERROR is
// present.
func ValidateLegal(plan *domain.SchedulePlan, constraints rulesDomain.Constraints, now time.Time) []sharedDomain.Finding {
	now = now.UTC()
	var findings []sharedDomain.Finding

	for _, slot := range plan.Slots() {
		hoursUntil := slot.StartsAt().Sub(now).Hours()
		if hoursUntil < constraints.AdvanceNoticeHours {
			findings = append(findings, sharedDomain.Finding{
				RuleCode: codeAdvanceNotice,
				Severity: sharedDomain.SeverityWarning,
				Subject:  slot.ID().String(),
				Message: fmt.Sprintf("slot on %s starts in %.0fh, under the %.0fh notice requirement",
					slot.TargetDate().Format(time.DateOnly), hoursUntil, constraints.AdvanceNoticeHours),
			})
		}
	}

	type dayKey struct {
		employee uuid.UUID
		date     string
	}
	weeklyHours := map[uuid.UUID]float64{}
	dailyHours := map[dayKey]float64{}
	workedDates := map[uuid.UUID]map[string]bool{}
	for _, slot := range plan.Slots() {
		if slot.EmployeeID() == nil {
			continue
		}
		employee := *slot.EmployeeID()
		date := slot.TargetDate().Format(time.DateOnly)
		weeklyHours[employee] += slot.HoursWorked()
		dailyHours[dayKey{employee, date}] += slot.HoursWorked()
		if workedDates[employee] == nil {
			workedDates[employee] = map[string]bool{}
		}
		workedDates[employee][date] = true
	}

	for employee, hours := range weeklyHours {
		if hours > constraints.MaxWeeklyHours {
			findings = append(findings, sharedDomain.Finding{
				RuleCode: codeWeeklyHours,
				Severity: sharedDomain.SeverityError,
				Subject:  employee.String(),
				Message:  fmt.Sprintf("weekly hours %.1f exceed the %.1f cap", hours, constraints.MaxWeeklyHours),
			})
		}
	}
	for key, hours := range dailyHours {
		if hours > constraints.MaxDailyHours {
			findings = append(findings, sharedDomain.Finding{
				RuleCode: codeDailyHours,
				Severity: sharedDomain.SeverityError,
				Subject:  key.employee.String(),
				Message:  fmt.Sprintf("daily hours %.1f on %s exceed the %.1f cap", hours, key.date, constraints.MaxDailyHours),
			})
		}
	}
	streakSeverity := sharedDomain.SeverityWarning
	if constraints.IntermittentMode {
		streakSeverity = sharedDomain.SeverityError
	}
	for employee, dates := range workedDates {
		if consecutive := longestStreak(dates); consecutive > constraints.MaxConsecutiveDays {
			findings = append(findings, sharedDomain.Finding{
				RuleCode: codeConsecutiveDays,
				Severity: streakSeverity,
				Subject:  employee.String(),
				Message:  fmt.Sprintf("%d consecutive worked days exceed the %d limit", consecutive, constraints.MaxConsecutiveDays),
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity == sharedDomain.SeverityError
		}
		return findings[i].Subject < findings[j].Subject
	})
	return findings
}

func longestStreak(dates map[string]bool) int {
	if len(dates) == 0 {
		return 0
	}
	ordered := make([]time.Time, 0, len(dates))
	for date := range dates {
		if d, err := time.ParseInLocation(time.DateOnly, date, time.UTC); err == nil {
			ordered = append(ordered, d)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	longest, current := 1, 1
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Sub(ordered[i-1]) == 24*time.Hour {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}

// PreviewEmployee is one employee's convocation summary for a plan.
type PreviewEmployee struct {
	EmployeeID uuid.UUID              `json:"employee_id"`
	SlotIDs    []uuid.UUID            `json:"slot_ids"`
	TotalHours float64                `json:"total_hours"`
	Findings   []sharedDomain.Finding `json:"findings,omitempty"`
	Label      string                 `json:"label"`
}

// ConvocationPreview groups a plan's assigned slots per employee, merges the
// findings that concern each one, and labels them ok, warning, or error.
func ConvocationPreview(plan *domain.SchedulePlan, findings []sharedDomain.Finding) []PreviewEmployee {
	byEmployee := map[uuid.UUID]*PreviewEmployee{}
	var order []uuid.UUID
	for _, slot := range plan.Slots() {
		if slot.EmployeeID() == nil {
			continue
		}
		employee := *slot.EmployeeID()
		entry, ok := byEmployee[employee]
		if !ok {
			entry = &PreviewEmployee{EmployeeID: employee, Label: "ok"}
			byEmployee[employee] = entry
			order = append(order, employee)
		}
		entry.SlotIDs = append(entry.SlotIDs, slot.ID())
		entry.TotalHours += slot.HoursWorked()
	}

	slotOwner := map[string]uuid.UUID{}
	for _, slot := range plan.Slots() {
		if slot.EmployeeID() != nil {
			slotOwner[slot.ID().String()] = *slot.EmployeeID()
		}
	}
	for _, finding := range findings {
		// Slot ids and employee ids are both UUIDs; slot ownership has to be
		// checked first so per-slot findings land on the assigned employee.
		var owner uuid.UUID
		if employee, ok := slotOwner[finding.Subject]; ok {
			owner = employee
		} else if employee, err := uuid.Parse(finding.Subject); err == nil {
			owner = employee
		} else {
			continue
		}
		entry, ok := byEmployee[owner]
		if !ok {
			continue
		}
		entry.Findings = append(entry.Findings, finding)
		if finding.Severity == sharedDomain.SeverityError {
			entry.Label = "error"
		} else if entry.Label == "ok" {
			entry.Label = "warning"
		}
	}

	preview := make([]PreviewEmployee, 0, len(order))
	for _, employee := range order {
		preview = append(preview, *byEmployee[employee])
	}
	return preview
}
