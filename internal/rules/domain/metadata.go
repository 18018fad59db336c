package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Constraint keys recognized by the engine.
const (
	KeyMaxWeeklyHours        = "max_weekly_hours"
	KeyMaxDailyHours         = "max_daily_hours"
	KeyMinRestHours          = "min_rest_between_shifts_hours"
	KeyAdvanceNoticeHours    = "advance_notice_hours"
	KeyMaxConsecutiveDays    = "max_consecutive_days"
	KeyBufferPct             = "buffer_pct"
	KeyUtilizationTargetPct  = "utilization_target_pct"
	KeyResponseDeadlineHours = "response_deadline_hours"
	KeyLunchMinutes          = "lunch_minutes"
	KeyShiftFactorPrefix     = "shift_factor." // + template name

	// FlagIntermittentMode is the MANDATORY SYSTEM rule gating on-call
	// behavior: no fixed schedules, no continuous patterns, formal
	// convocations required.
	FlagIntermittentMode = "intermittent_mode"
	FlagBlockFixed       = "block_fixed_schedules"
)

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// keywordKeys maps title/answer keywords (Portuguese and English, as the rule
// templates carry both) to constraint keys.
var keywordKeys = []struct {
	key      string
	keywords []string
}{
	{KeyMaxWeeklyHours, []string{"semanal", "weekly"}},
	{KeyMaxDailyHours, []string{"diária", "diaria", "daily"}},
	{KeyMinRestHours, []string{"descanso", "interjornada", "rest"}},
	{KeyAdvanceNoticeHours, []string{"antecedência", "antecedencia", "advance", "notice", "convocação", "convocacao"}},
	{KeyMaxConsecutiveDays, []string{"consecutivos", "consecutive"}},
	{KeyBufferPct, []string{"buffer", "margem"}},
	{KeyUtilizationTargetPct, []string{"utilização", "utilizacao", "utilization", "produtividade"}},
	{KeyResponseDeadlineHours, []string{"resposta", "response", "prazo"}},
	{KeyLunchMinutes, []string{"almoço", "almoco", "lunch", "intervalo"}},
}

// ExtractMetadata parses the natural-language answer of a rule into the typed
// constraint map the runtime reads. The heuristic is keyword-keyed first
// number; unrecognized rules yield an empty map and are carried for audit
// only.
func ExtractMetadata(title, answer string) (map[string]float64, map[string]bool) {
	metadata := make(map[string]float64)
	flags := make(map[string]bool)

	text := strings.ToLower(title + " " + answer)

	if strings.Contains(text, "intermitente") || strings.Contains(text, "intermittent") {
		flags[FlagIntermittentMode] = !containsNegation(text)
	}
	if strings.Contains(text, "fixo") || strings.Contains(text, "fixed schedule") {
		flags[FlagBlockFixed] = !containsNegation(text)
	}

	raw := numberPattern.FindString(answer)
	if raw == "" {
		return metadata, flags
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return metadata, flags
	}

	for _, entry := range keywordKeys {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				metadata[entry.key] = value
				return metadata, flags
			}
		}
	}
	return metadata, flags
}

func containsNegation(text string) bool {
	for _, neg := range []string{"não ", "nao ", "not ", "sem ", "desativ", "disabled"} {
		if strings.Contains(text, neg) {
			return true
		}
	}
	return false
}
