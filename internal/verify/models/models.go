// Package models holds the domain types of the license verification engine.
package models

import (
	"time"

	dErrors "dossard/pkg/domain-errors"
)

// Tier is the federation-assigned competitive level of a relation, ordered
// from lowest to highest. Races configure a minimum tier for entry.
type Tier int

const (
	TierNone Tier = iota
	TierDepartmental
	TierRegional
	TierInterregional
	TierNational
	TierInternational
)

var tierNames = map[Tier]string{
	TierNone:          "none",
	TierDepartmental:  "departmental",
	TierRegional:      "regional",
	TierInterregional: "interregional",
	TierNational:      "national",
	TierInternational: "international",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "none"
}

// ParseTier maps a tier name back to its ordered value. Unknown names map to
// TierNone so race configuration stays permissive by default.
func ParseTier(name string) Tier {
	for t, n := range tierNames {
		if n == name {
			return t
		}
	}
	return TierNone
}

// VerificationRequest carries everything needed for one federation lookup.
// Credentials and at least one of {relation identifier, full identity triple}
// must be present; Validate enforces this before any network call.
type VerificationRequest struct {
	// Service account credentials for the federation web service.
	AccountID     string
	AccountSecret string

	// RelationID is the athlete-facing credential number (license,
	// participation pass, health pass or loyalty card). Optional when the
	// full identity triple is supplied.
	RelationID string

	// Identity fields, dd/mm/yyyy birth reference.
	LastName  string
	FirstName string
	Sex       string
	BirthDate string

	// Competition reference; test-mode sentinels are substituted when empty.
	CompetitionCode string
	CompetitionDate string

	// ConsentShare reports whether the athlete consented to data sharing.
	ConsentShare bool
}

// HasIdentityTriple reports whether last name, first name and birth reference
// are all present.
func (r VerificationRequest) HasIdentityTriple() bool {
	return r.LastName != "" && r.FirstName != "" && r.BirthDate != ""
}

// Validate rejects requests that cannot be sent upstream. This is the only
// failure in the engine surfaced as an error rather than a negative outcome.
func (r VerificationRequest) Validate() error {
	if r.AccountID == "" || r.AccountSecret == "" {
		return dErrors.New(dErrors.CodeInvalidRequest, "federation service account credentials are required")
	}
	if r.RelationID == "" && !r.HasIdentityTriple() {
		return dErrors.New(dErrors.CodeInvalidRequest, "either a relation identifier or the full identity triple (last name, first name, birth date) is required")
	}
	return nil
}

// AthleteRecord is the federation's view of a verified relation.
type AthleteRecord struct {
	RelationID     string
	LastName       string
	FirstName      string
	Sex            string
	BirthDate      string
	Nationality    string
	RelationType   string
	RelationExpiry string // dd/mm/yyyy, empty when the upstream omits it
	Category       string
	Club           string // resolved display name, see ResolveClubName
	ClubCode       string
	Department     string
	League         string
	Tier           Tier
	Suspended      bool
	HealthPass     bool // health pass required per the federation record
}

// VerificationOutcome is the engine's normalized result.
// Connected=true implies Athlete is present and ErrorCode is empty;
// Connected=false implies Athlete is nil.
type VerificationOutcome struct {
	Connected     bool
	StatusMessage string       // trailing status token from the wire payload
	ErrorCode     dErrors.Code // empty on success
	Hint          string       // human-readable guidance for negative outcomes
	Details       string       // raw upstream diagnostics, support/debug only
	Athlete       *AthleteRecord
	CheckedAt     time.Time
}

// ResolveClubName applies the club display fallback: full name, else
// abbreviated name, else a placeholder built from the club code, else "".
// Every place a club is rendered must go through this helper.
func ResolveClubName(fullName, shortName, code string) string {
	switch {
	case fullName != "":
		return fullName
	case shortName != "":
		return shortName
	case code != "":
		return "Club " + code
	default:
		return ""
	}
}

// CacheEntry is one cached verification outcome. Entries are created on a
// successful live verification, returned as-is while now < ExpiresAt, and
// superseded (never mutated) by a later live verification.
type CacheEntry struct {
	RelationID string              `json:"relation_id"`
	Outcome    VerificationOutcome `json:"outcome"`
	CachedAt   time.Time           `json:"cached_at"`
	ExpiresAt  time.Time           `json:"expires_at"`
}

// Expired reports whether the entry is past its freshness window at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// RaceConfig is the per-race configuration consumed by eligibility rules.
type RaceConfig struct {
	Code               string
	Date               time.Time
	MinimumTier        Tier
	HealthPassRequired bool
}
