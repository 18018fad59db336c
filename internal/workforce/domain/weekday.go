package domain

import "time"

// Weekday is a 7-valued enum persisted as its integer ordinal
// (Sunday = 0, matching time.Weekday).
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// WeekdayOf returns the weekday of a date.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(date.Weekday())
}

// String returns the English name used in logs and traces.
func (w Weekday) String() string {
	return time.Weekday(w).String()
}

// portugueseWeekdays is the localization table used only at display
// boundaries (CLI output). Persistence always uses the ordinal.
var portugueseWeekdays = [7]string{
	"domingo",
	"segunda-feira",
	"terça-feira",
	"quarta-feira",
	"quinta-feira",
	"sexta-feira",
	"sábado",
}

// DisplayNamePT returns the Portuguese weekday name.
func (w Weekday) DisplayNamePT() string {
	if w < 0 || w > 6 {
		return ""
	}
	return portugueseWeekdays[w]
}

// IsValid reports whether the ordinal is inside the enum range.
func (w Weekday) IsValid() bool {
	return w >= Sunday && w <= Saturday
}

// NormalizeDate truncates a timestamp to a UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStartOf returns the Monday opening the planning week that contains the
// date. Plans and hour-cap accounting both run Monday through Sunday.
func WeekStartOf(date time.Time) time.Time {
	date = NormalizeDate(date)
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}
