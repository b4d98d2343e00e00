// Package identifier classifies relation identifiers by their format.
//
// Classification is pure pattern matching with no side effects. It is used
// both as a pre-flight validator before building a verification request and
// as a standalone utility for form validation.
package identifier

import "regexp"

// Kind is the credential family a relation identifier belongs to.
type Kind string

const (
	KindLicense           Kind = "license"
	KindParticipationPass Kind = "participation_pass"
	KindHealthPass        Kind = "health_pass"
	KindLoyaltyCard       Kind = "loyalty_card"
	KindUnknown           Kind = "unknown"
)

// Classification is the result of classifying a raw identifier.
type Classification struct {
	Raw         string
	Valid       bool
	Kind        Kind
	Description string
}

// rules are evaluated in this fixed order; first match wins.
var rules = []struct {
	kind        Kind
	pattern     *regexp.Regexp
	description string
}{
	{KindLicense, regexp.MustCompile(`^[0-9]{6,7}$`), "federation license number"},
	{KindParticipationPass, regexp.MustCompile(`^T[0-9]{6}$`), "participation pass"},
	{KindHealthPass, regexp.MustCompile(`^P[0-9A-Za-z]{10}$`), "health pass"},
	{KindLoyaltyCard, regexp.MustCompile(`^CF[0-9]{6}$`), "loyalty card"},
}

// Classify types a raw relation identifier. Anything that matches no rule,
// including the empty string, is UNKNOWN and invalid.
func Classify(raw string) Classification {
	for _, r := range rules {
		if r.pattern.MatchString(raw) {
			return Classification{
				Raw:         raw,
				Valid:       true,
				Kind:        r.kind,
				Description: r.description,
			}
		}
	}
	return Classification{
		Raw:         raw,
		Valid:       false,
		Kind:        KindUnknown,
		Description: "unrecognized identifier format",
	}
}
