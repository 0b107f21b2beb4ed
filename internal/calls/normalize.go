package calls

import (
	"strconv"
	"strings"
	"time"

	"leadsync-platform/internal/callsource"
)

// Trade classifications derived from campaign names. The keyword sets are
// disjoint by construction; first match wins.
const (
	TradeHVAC     = "HVAC"
	TradePlumbing = "Plumbing"
)

var hvacKeywords = []string{"hvac", "heating", "cooling", "air conditioning", "air-conditioning"}
var plumbingKeywords = []string{"plumbing", "drain", "water"}

// Normalize converts a raw upstream call into the canonical CallRecord.
// It returns nil when the record is missing its external id or receipt
// timestamp; such records are dropped before storage, never stored partially.
func Normalize(raw callsource.RawCall, now time.Time) *CallRecord {
	id := strings.TrimSpace(raw.ID.String())
	if id == "" {
		return nil
	}
	receivedAt, ok := parseTimestamp(raw.ReceivedOn)
	if !ok {
		return nil
	}

	rec := &CallRecord{
		ExternalCallID:  id,
		Direction:       ParseDirection(raw.Direction),
		CallType:        raw.CallType,
		DurationSeconds: ParseDurationSeconds(raw.Duration.String()),
		FromNumber:      raw.From,
		ToNumber:        raw.To,
		TrackingNumber:  raw.TrackingNumber,
		RecordingURL:    raw.RecordingURL,
		ReceivedAt:      receivedAt,
		CustomerID:      raw.CustomerID.String(),
		JobID:           raw.JobID.String(),
		BookingID:       raw.BookingID.String(),
		SyncedAt:        now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	if raw.Campaign != nil {
		rec.CampaignID = raw.Campaign.ID.String()
		rec.CampaignName = raw.Campaign.Name
	}
	if raw.Agent != nil {
		rec.AgentID = raw.Agent.ID.String()
		rec.AgentName = raw.Agent.Name
	}
	if raw.BusinessUnit != nil {
		rec.BusinessUnitID = raw.BusinessUnit.ID.String()
		rec.BusinessUnitName = raw.BusinessUnit.Name
	}
	return rec
}

// ParseDurationSeconds interprets the three upstream duration encodings:
// ISO-8601 durations ("PT5M30S"), clock strings ("01:02:03"), and bare
// integer seconds ("45"). Anything else is nil, not an error.
func ParseDurationSeconds(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	if strings.HasPrefix(v, "PT") || strings.HasPrefix(v, "pt") {
		return parseISODuration(v)
	}
	if strings.Contains(v, ":") {
		return parseClockDuration(v)
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return &n
	}
	return nil
}

// parseISODuration handles the PT[nH][nM][nS] subset the platform emits.
func parseISODuration(v string) *int {
	rest := v[2:]
	if rest == "" {
		return nil
	}
	total := 0
	num := ""
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H' || r == 'h':
			n, err := strconv.Atoi(num)
			if err != nil {
				return nil
			}
			total += n * 3600
			num = ""
		case r == 'M' || r == 'm':
			n, err := strconv.Atoi(num)
			if err != nil {
				return nil
			}
			total += n * 60
			num = ""
		case r == 'S' || r == 's':
			n, err := strconv.Atoi(num)
			if err != nil {
				return nil
			}
			total += n
			num = ""
		default:
			return nil
		}
	}
	if num != "" {
		// Trailing digits without a unit.
		return nil
	}
	return &total
}

func parseClockDuration(v string) *int {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return nil
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	s, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || s < 0 {
		return nil
	}
	total := h*3600 + m*60 + s
	return &total
}

// NormalizePhone strips every non-digit and keeps the last 10 digits,
// dropping country-code prefixes. Fewer than 10 digits yields "".
func NormalizePhone(v string) string {
	var digits strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 10 {
		return ""
	}
	return d[len(d)-10:]
}

// ClassifyTrade maps a campaign name onto a trade by case-insensitive
// keyword lookup. Unknown names classify as "".
func ClassifyTrade(campaignName string) string {
	name := strings.ToLower(campaignName)
	if name == "" {
		return ""
	}
	for _, kw := range hvacKeywords {
		if strings.Contains(name, kw) {
			return TradeHVAC
		}
	}
	for _, kw := range plumbingKeywords {
		if strings.Contains(name, kw) {
			return TradePlumbing
		}
	}
	return ""
}

func parseTimestamp(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
