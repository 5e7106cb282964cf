// Package config contains wrapper types for configuration values that need
// custom JSON deserialization, shared by every config struct in this repo.
package config

import (
	"encoding/json"
	"errors"
	"time"
)

// Duration is an alias for time.Duration that can be deserialized from the
// human-readable string form ("90s", "36h") used in our JSON config files.
type Duration struct {
	time.Duration `validate:"required"`
}

// ErrDurationMustBeString is returned when a non-string JSON value is
// presented to be deserialized as a Duration.
var ErrDurationMustBeString = errors.New("cannot JSON unmarshal something other than a string into a config.Duration")

// UnmarshalJSON parses a string into a Duration using time.ParseDuration. If
// the input does not unmarshal as a string, it returns
// ErrDurationMustBeString.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := ""
	err := json.Unmarshal(b, &s)
	if err != nil {
		var jsonUnmarshalTypeErr *json.UnmarshalTypeError
		if errors.As(err, &jsonUnmarshalTypeErr) {
			return ErrDurationMustBeString
		}
		return err
	}
	dd, err := time.ParseDuration(s)
	d.Duration = dd
	return err
}

// MarshalJSON returns the string form of the duration, as a byte array.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Duration.String() + `"`), nil
}
