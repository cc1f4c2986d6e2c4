package viewmodels

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const emptyValue = "—"

// Status colours understood by the stylesheet.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorOrange = "orange"
	ColorRed    = "red"
	ColorBlue   = "blue"
	ColorGrey   = "grey"
)

// ExecutionStatusColor maps a pipeline execution status to a badge colour.
func ExecutionStatusColor(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "succeeded", "ignorefailed":
		return ColorGreen
	case "failed", "errored", "aborted", "expired", "approvalrejected":
		return ColorRed
	case "running", "asyncwaiting", "taskwaiting", "timedwaiting", "queued", "inputwaiting":
		return ColorBlue
	case "paused", "pausing", "waiting", "approvalwaiting", "interventionwaiting", "resourcewaiting":
		return ColorOrange
	default:
		return ColorGrey
	}
}

// HealthColor derives the colour of a monitored service health badge from the
// risk status, falling back to the score when no status is reported.
func HealthColor(riskStatus string, score *int) string {
	switch strings.ToUpper(strings.TrimSpace(riskStatus)) {
	case "HEALTHY":
		return ColorGreen
	case "OBSERVE":
		return ColorYellow
	case "NEED_ATTENTION":
		return ColorOrange
	case "UNHEALTHY":
		return ColorRed
	case "NO_DATA", "NO_ANALYSIS":
		return ColorGrey
	}
	if score == nil {
		return ColorGrey
	}
	switch s := *score; {
	case s >= 75:
		return ColorGreen
	case s >= 50:
		return ColorYellow
	case s >= 25:
		return ColorOrange
	default:
		return ColorRed
	}
}

// FormatTimestamp renders epoch milliseconds in UTC.
func FormatTimestamp(ms int64) string {
	if ms <= 0 {
		return emptyValue
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 MST")
}

func FormatScore(score *int) string {
	if score == nil {
		return emptyValue
	}
	return strconv.Itoa(*score)
}

// FormatTags renders tags as sorted key:value labels.
func FormatTags(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for k, v := range tags {
		if v == "" {
			out = append(out, k)
			continue
		}
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}

func OrDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return emptyValue
	}
	return s
}
