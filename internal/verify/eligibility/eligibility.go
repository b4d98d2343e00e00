// Package eligibility applies race-entry rules to verified athlete records.
// The rules are pure functions over a record and a race configuration; the
// engine has already settled what the federation knows.
package eligibility

import (
	"fmt"
	"time"

	"dossard/internal/verify/models"
)

// expiryLayout is the upstream's date format for relation expiry.
const expiryLayout = "02/01/2006"

// Expiry is the tri-state answer to "is this relation expired at race day".
// The upstream omits or mangles expiry dates often enough that unknown must
// stay distinct from both yes and no.
type Expiry int

const (
	ExpiryUnknown Expiry = iota
	ExpiryValid
	ExpiryExpired
)

// Verdict is the aggregate eligibility decision for one athlete and race.
// Both tiers travel with it so rejections can show what was held against
// what.
type Verdict struct {
	Eligible     bool        `json:"eligible"`
	Reasons      []string    `json:"reasons,omitempty"`
	AthleteTier  models.Tier `json:"athlete_tier"`
	RequiredTier models.Tier `json:"required_tier"`
}

// MeetsMinimumTier compares the athlete's competitive tier against the
// race's minimum, returning both values alongside the answer for display.
func MeetsMinimumTier(rec *models.AthleteRecord, race models.RaceConfig) (bool, models.Tier, models.Tier) {
	return rec.Tier >= race.MinimumTier, rec.Tier, race.MinimumTier
}

// IsExpiredAtCompetition checks the relation expiry against race day.
// A relation expiring on race day is still valid for it.
func IsExpiredAtCompetition(rec *models.AthleteRecord, race models.RaceConfig) Expiry {
	if rec.RelationExpiry == "" || race.Date.IsZero() {
		return ExpiryUnknown
	}
	expiry, err := time.Parse(expiryLayout, rec.RelationExpiry)
	if err != nil {
		return ExpiryUnknown
	}
	if race.Date.After(expiry) {
		return ExpiryExpired
	}
	return ExpiryValid
}

// RequiresHealthPass reports whether the race demands a health pass the
// athlete's record does not carry.
func RequiresHealthPass(rec *models.AthleteRecord, race models.RaceConfig) bool {
	return race.HealthPassRequired && !rec.HealthPass
}

// Evaluate aggregates all rules into a single verdict. An unknown expiry
// does not block entry; organizers handle those manually.
func Evaluate(rec *models.AthleteRecord, race models.RaceConfig) Verdict {
	var reasons []string

	if rec.Suspended {
		reasons = append(reasons, "relation is suspended")
	}
	meets, athleteTier, requiredTier := MeetsMinimumTier(rec, race)
	if !meets {
		reasons = append(reasons, fmt.Sprintf("competitive tier %s below the race minimum %s", athleteTier, requiredTier))
	}
	if IsExpiredAtCompetition(rec, race) == ExpiryExpired {
		reasons = append(reasons, "relation expired before race day")
	}
	if RequiresHealthPass(rec, race) {
		reasons = append(reasons, "race requires a health pass")
	}

	return Verdict{
		Eligible:     len(reasons) == 0,
		Reasons:      reasons,
		AthleteTier:  athleteTier,
		RequiredTier: requiredTier,
	}
}
