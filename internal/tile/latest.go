package tile

import (
	"strconv"
	"time"

	"github.com/ironjr/himawaripy/internal/geo"
)

// himawariOffset is the UTC offset of the satellite's nominal longitude.
// Frames are published with UTC timestamps; a viewer at a different offset
// wants the frame whose local daylight matches their own.
const himawariOffset = 10

// ValidateOffset rejects UTC offsets the service cannot satisfy.
func ValidateOffset(hours int) error {
	if hours < -12 || hours > 10 {
		return &geo.ConfigError{Field: "offset", Reason: "UTC offset " + strconv.Itoa(hours) + " outside [-12, +10]"}
	}
	return nil
}

// AutoOffset derives the whole-hour UTC offset of now's location. Offsets in
// (+10, +11] fold to +10 and (+11, +12] wrap to -12, keeping the result in
// the range the service accepts.
func AutoOffset(now time.Time) int {
	_, secs := now.Zone()
	hours := secs / 3600
	switch {
	case hours > 11:
		return -12
	case hours > 10:
		return 10
	}
	return hours
}

// OffsetTime shifts the latest frame timestamp so the visible hemisphere's
// daylight matches the given UTC offset.
func OffsetTime(latest time.Time, utcOffset int) time.Time {
	return latest.Add(time.Duration(utcOffset-himawariOffset) * time.Hour)
}
