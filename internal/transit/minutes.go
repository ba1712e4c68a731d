package transit

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Arrival sentinels used by upstream systems for imminent trains. These pass
// through the normalized model unchanged rather than being coerced to zero.
const (
	SentinelArriving = "ARR"
	SentinelBoarding = "BRD"
)

// Minutes is a countdown until arrival: either a non-negative number of
// minutes or an upstream sentinel ("ARR", "BRD") for a train that is at or
// entering the platform. Sentinels sort before every numeric value.
type Minutes struct {
	sentinel string
	value    int
}

// MinutesAway returns a numeric countdown.
func MinutesAway(n int) Minutes {
	return Minutes{value: n}
}

// Arriving returns the "ARR" sentinel countdown.
func Arriving() Minutes {
	return Minutes{sentinel: SentinelArriving}
}

// ParseMinutes interprets an upstream countdown string. Numeric strings become
// numeric countdowns; anything else is carried as a sentinel verbatim.
func ParseMinutes(raw string) Minutes {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return Minutes{value: n}
	}
	return Minutes{sentinel: s}
}

// Imminent reports whether the countdown is a sentinel value.
func (m Minutes) Imminent() bool {
	return m.sentinel != ""
}

// Value returns the numeric countdown. Zero for sentinel values.
func (m Minutes) Value() int {
	if m.sentinel != "" {
		return 0
	}
	return m.value
}

// Less orders countdowns by urgency: sentinels before numbers, numbers
// ascending. Two sentinels compare equal so stable sorts keep input order.
func (m Minutes) Less(other Minutes) bool {
	if m.sentinel != "" {
		return other.sentinel == ""
	}
	if other.sentinel != "" {
		return false
	}
	return m.value < other.value
}

func (m Minutes) String() string {
	if m.sentinel != "" {
		return m.sentinel
	}
	return strconv.Itoa(m.value)
}

// MarshalJSON renders sentinels as strings and countdowns as numbers,
// matching the wire shape of the upstream APIs.
func (m Minutes) MarshalJSON() ([]byte, error) {
	if m.sentinel != "" {
		return json.Marshal(m.sentinel)
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON accepts either a JSON number or a sentinel string.
func (m *Minutes) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*m = Minutes{value: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMinutes(s)
	return nil
}
