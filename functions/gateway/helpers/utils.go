package helpers

import (
	"fmt"
	"strconv"
)

// ShortAddress renders a wallet address as `0x1234…abcd` for display.
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// DefaultDisplayName is the placeholder profile name assigned on lazy profile
// creation, before the user edits their profile.
func DefaultDisplayName(address string) string {
	return "User " + ShortAddress(address)
}

func CheckinPayload(eventId string) string {
	return fmt.Sprintf(CheckinURIScheme, eventId)
}

// ParsePageLimit clamps a client-supplied page size to [1, MaxEventPageLimit],
// falling back to the default when absent or malformed.
func ParsePageLimit(raw string) int32 {
	if raw == "" {
		return DefaultEventPageLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return DefaultEventPageLimit
	}
	if n > MaxEventPageLimit {
		return MaxEventPageLimit
	}
	return int32(n)
}
