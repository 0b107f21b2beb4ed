package callsource

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// RawCall mirrors one upstream call payload. The platform is loose about
// scalar types (ids arrive as strings or numbers, durations as ISO-8601
// strings, clock strings, or bare seconds), so every tolerant field decodes
// into FlexString and is interpreted downstream by the normalizer. A shape
// the normalizer cannot interpret becomes a dropped record, never a decode
// abort.
type RawCall struct {
	ID        FlexString `json:"id"`
	Direction string     `json:"direction"`
	CallType  string     `json:"callType"`

	Duration FlexString `json:"duration"`

	From           string `json:"from"`
	To             string `json:"to"`
	TrackingNumber string `json:"trackingNumber"`

	Campaign     *RawRef `json:"campaign"`
	Agent        *RawRef `json:"agent"`
	BusinessUnit *RawRef `json:"businessUnit"`

	RecordingURL string `json:"recordingUrl"`

	// ReceivedOn is the platform's receipt timestamp (RFC 3339).
	ReceivedOn string `json:"receivedOn"`

	CustomerID FlexString `json:"customerId"`
	JobID      FlexString `json:"jobId"`
	BookingID  FlexString `json:"bookingId"`
}

// RawRef is an upstream {id, name} reference.
type RawRef struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// FlexString decodes a JSON string, number, or null into a string.
// Numbers keep their literal form ("45" for 45). Null and any other
// shape decode to the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = ""
			return nil
		}
		*f = FlexString(s)
		return nil
	}
	// Integer literal: parse exactly, so large ids never lose precision
	// through a float round-trip.
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(n, 10))
		return nil
	}
	// Other numeric literal: keep the raw form, normalizing floats like 45.0.
	if n, err := strconv.ParseFloat(string(b), 64); err == nil {
		if n == float64(int64(n)) {
			*f = FlexString(strconv.FormatInt(int64(n), 10))
		} else {
			*f = FlexString(string(b))
		}
		return nil
	}
	*f = ""
	return nil
}

func (f FlexString) String() string { return string(f) }

// listResponse is the upstream calls-list envelope.
type listResponse struct {
	Data       []RawCall `json:"data"`
	HasMore    bool      `json:"hasMore"`
	TotalCount *int      `json:"totalCount,omitempty"`
}

// tokenResponse is the client-credentials grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
