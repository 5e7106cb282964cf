package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/letsencrypt/ocsp-fetcher/test"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	var d Duration
	err := json.Unmarshal([]byte(`"36h"`), &d)
	test.AssertNotError(t, err, "failed to unmarshal duration string")
	test.AssertEquals(t, d.Duration, 36*time.Hour)

	err = json.Unmarshal([]byte(`36`), &d)
	test.AssertErrorIs(t, err, ErrDurationMustBeString)

	err = json.Unmarshal([]byte(`"not-a-duration"`), &d)
	test.AssertError(t, err, "expected parse failure")
}

func TestDurationMarshalJSON(t *testing.T) {
	d := Duration{Duration: 90 * time.Second}
	out, err := json.Marshal(d)
	test.AssertNotError(t, err, "failed to marshal duration")
	test.AssertEquals(t, string(out), `"1m30s"`)
}
