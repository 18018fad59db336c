package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStartOf(t *testing.T) {
	monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, WeekStartOf(monday))
	assert.Equal(t, monday, WeekStartOf(monday.AddDate(0, 0, 3)))
	// Sunday night still belongs to the week that opened on Monday.
	assert.Equal(t, monday, WeekStartOf(monday.AddDate(0, 0, 6).Add(23*time.Hour)))
	assert.Equal(t, monday.AddDate(0, 0, 7), WeekStartOf(monday.AddDate(0, 0, 7)))
}
