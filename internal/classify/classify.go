package classify

import (
	"strings"

	"sunny-osprey/internal/models"
)

// affirmative string forms of a suspicious verdict, matched case-insensitively
var affirmative = map[string]bool{
	"yes":  true,
	"true": true,
	"1":    true,
}

// IsSuspicious maps an inference result to the suspicious/normal verdict used
// by every downstream consumer. It is total and side-effect free.
//
// The "suspicious" field is read first; when it is falsy in the presence
// sense (absent, null, false, "", 0, empty collection) the legacy field
// "is_unusual_or_suspicious_activity_detected" is consulted instead. This
// deliberately reproduces the historical OR precedence: a falsy new field
// falls through to the legacy one even when the new field said false
// explicitly.
func IsSuspicious(result *models.InferenceResult) bool {
	value := result.Suspicious
	if value.Falsy() {
		value = result.LegacySuspicious
	}
	return normalize(value)
}

// normalize casts a raw verdict value to a boolean. Unknown shapes are never
// suspicious.
func normalize(v models.SuspicionValue) bool {
	switch v.Kind {
	case models.SuspicionBool:
		return v.Bool
	case models.SuspicionString:
		return affirmative[strings.ToLower(v.Str)]
	case models.SuspicionNumber:
		return v.Num != 0
	default:
		return false
	}
}
