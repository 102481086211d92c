package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout is the wire form of record creation times: local wall-clock time
// at second precision, no timezone marker.
const timeLayout = "2006-01-02 15:04:05"

// Timestamp is a second-precision local wall-clock time. Its JSON form is
// "2006-01-02 15:04:05"; the zone is implied by the host, so snapshots are
// portable between runs on the same host, not across zones.
type Timestamp struct {
	time.Time
}

// Now returns the current local time truncated to second precision.
func Now() Timestamp {
	return Timestamp{time.Now().Truncate(time.Second)}
}

// MarshalJSON renders the timestamp in the wire layout.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(timeLayout))
}

// UnmarshalJSON parses the wire layout in the host's local zone.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("domain: timestamp: %w", err)
	}
	parsed, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("domain: timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Equal reports whether two timestamps denote the same instant.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}
