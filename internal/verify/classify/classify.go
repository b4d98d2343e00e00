// Package classify maps parsed federation payloads to normalized
// verification outcomes. Classification is deterministic and performs no
// I/O; everything the upstream vocabulary leaves configurable (failure
// codes, category brackets, tier mapping) is injected.
package classify

import (
	"errors"
	"strings"

	"dossard/internal/verify/category"
	"dossard/internal/verify/models"
	"dossard/internal/verify/protocol"
	dErrors "dossard/pkg/domain-errors"
)

// FailureMode splits the upstream failure vocabulary into hard errors
// (credentials, blocked account) and soft declines (expected negative
// business outcomes).
type FailureMode int

const (
	FailureHard FailureMode = iota
	FailureSoft
)

// FailureCode describes one entry of the configurable failure-code table.
type FailureCode struct {
	Mode FailureMode
	Hint string
}

// Config tunes classification per federation. The upstream's flat error
// vocabulary is not standardized across federations, so the whole table is
// configuration rather than code.
type Config struct {
	// SuccessToken is the literal status message of a successful lookup.
	SuccessToken string
	// TrueFlag is the literal true value of the payload's flag fields.
	TrueFlag string
	// FalseFlag is the literal false value of the payload's flag fields.
	FalseFlag string
	// FailureCodes maps upstream status codes to their mode and hint.
	FailureCodes map[string]FailureCode
	// TierByRelationType maps federation relation-type codes to tiers.
	TierByRelationType map[string]models.Tier
	// Categories derives a category when the upstream omits one.
	Categories *category.Table
	// GenericHint covers status codes absent from FailureCodes.
	GenericHint string
}

// Default upstream vocabulary observed in production. The failure codes are
// examples, not an exhaustive list; deployments override the table through
// configuration when their federation speaks a different dialect.
const (
	DefaultSuccessToken = "OK"
	DefaultTrueFlag     = "O"
	DefaultFalseFlag    = "N"

	CodeUnauthorized       = "E05" // service account rejected
	CodeBlocked            = "E10" // service account blocked
	CodeNotFound           = "E20" // no relation matches
	CodeIdentityMismatch   = "E21" // identity fields do not match
	CodeHomonym            = "E22" // several relations match
	CodeCompetitionUnknown = "E31" // competition not registered with the federation
)

// DefaultConfig returns the production vocabulary with a standard
// age-bracket table. Callers override fields per federation.
func DefaultConfig() Config {
	return Config{
		SuccessToken: DefaultSuccessToken,
		TrueFlag:     DefaultTrueFlag,
		FalseFlag:    DefaultFalseFlag,
		FailureCodes: map[string]FailureCode{
			CodeUnauthorized:       {FailureHard, "federation rejected the service account; check the account code and password"},
			CodeBlocked:            {FailureHard, "service account blocked by the federation; contact federation support"},
			CodeNotFound:           {FailureSoft, "no relation matches this identifier"},
			CodeIdentityMismatch:   {FailureSoft, "identity fields do not match the federation record"},
			CodeHomonym:            {FailureSoft, "several relations match this identity; provide the relation identifier"},
			CodeCompetitionUnknown: {FailureSoft, "this competition is not registered with the federation; check the competition code, the athlete identity is not in question"},
		},
		TierByRelationType: map[string]models.Tier{
			"COMP": models.TierNational,
			"REG":  models.TierRegional,
			"DEP":  models.TierDepartmental,
			"LOI":  models.TierNone, // leisure relation, no competitive tier
		},
		Categories: category.NewTable([]category.Bracket{
			{MinAge: 0, MaxAge: 15, Code: "MI"},
			{MinAge: 16, MaxAge: 17, Code: "CA"},
			{MinAge: 18, MaxAge: 19, Code: "JU"},
			{MinAge: 20, MaxAge: 22, Code: "ES"},
			{MinAge: 23, MaxAge: 39, Code: "SE"},
			{MinAge: 40, MaxAge: 120, Code: "MA"},
		}),
		GenericHint: "verification declined by the federation; see details",
	}
}

// Classifier turns parsed field lists into verification outcomes.
type Classifier struct {
	cfg Config
}

// New creates a classifier with the given configuration.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify derives the normalized outcome from a parsed payload.
// seasonYear feeds category derivation when the upstream omits a category;
// passing the competition year keeps classification deterministic.
//
// Success is the upstream's disjunction: status equals the success token, or
// the exact-info flag is set, or the status message carries none of the
// configured failure codes. Hard failure codes override the positive flags
// unconditionally.
func (c *Classifier) Classify(fl *protocol.FieldList, seasonYear int) models.VerificationOutcome {
	status := fl.StatusMessage()
	code, failure, known := c.matchFailureCode(status)

	if known && failure.Mode == FailureHard {
		return c.negative(dErrors.CodeUpstreamHardError, status, failure.Hint, code)
	}

	positive := status == c.cfg.SuccessToken || fl.Get(protocol.FieldInfoExact) == c.cfg.TrueFlag
	if !positive && known {
		return c.negative(dErrors.CodeUpstreamSoftDecline, status, failure.Hint, code)
	}

	return c.success(fl, status, seasonYear)
}

// matchFailureCode scans the whole table for codes contained in the status
// message. The upstream embeds codes in free text, so containment rather
// than equality is required. When several codes appear in one status a hard
// code always wins, with lexicographic order breaking the remaining ties so
// classification never depends on map iteration order.
func (c *Classifier) matchFailureCode(status string) (string, FailureCode, bool) {
	if status == "" || status == c.cfg.SuccessToken {
		return "", FailureCode{}, false
	}
	var bestCode string
	var best FailureCode
	found := false
	for code, fc := range c.cfg.FailureCodes {
		if !strings.Contains(status, code) {
			continue
		}
		if !found || harderThan(fc, code, best, bestCode) {
			bestCode, best, found = code, fc, true
		}
	}
	return bestCode, best, found
}

func harderThan(a FailureCode, aCode string, b FailureCode, bCode string) bool {
	if a.Mode != b.Mode {
		return a.Mode == FailureHard
	}
	return aCode < bCode
}

func (c *Classifier) negative(errCode dErrors.Code, status, hint, upstreamCode string) models.VerificationOutcome {
	if hint == "" {
		hint = c.cfg.GenericHint
	}
	return models.VerificationOutcome{
		Connected:     false,
		StatusMessage: status,
		ErrorCode:     errCode,
		Hint:          hint,
		Details:       "upstream status " + upstreamCode + ": " + status,
	}
}

func (c *Classifier) success(fl *protocol.FieldList, status string, seasonYear int) models.VerificationOutcome {
	rec := &models.AthleteRecord{
		RelationID:     fl.Get(protocol.FieldRelationID),
		LastName:       fl.Get(protocol.FieldLastName),
		FirstName:      fl.Get(protocol.FieldFirstName),
		Sex:            fl.Get(protocol.FieldSex),
		BirthDate:      fl.Get(protocol.FieldBirthDate),
		Nationality:    fl.Get(protocol.FieldNationality),
		RelationType:   fl.Get(protocol.FieldRelationType),
		RelationExpiry: fl.Get(protocol.FieldRelationExpiry),
		Category:       fl.Get(protocol.FieldCategory),
		ClubCode:       fl.Get(protocol.FieldClubCode),
		Department:     fl.Get(protocol.FieldDepartment),
		League:         fl.Get(protocol.FieldLeague),
		Suspended:      fl.Get(protocol.FieldRelationValid) == c.cfg.FalseFlag,
		HealthPass:     fl.Get(protocol.FieldHealthPass) == c.cfg.TrueFlag,
	}

	rec.Club = models.ResolveClubName(
		fl.Get(protocol.FieldClubFullName),
		fl.Get(protocol.FieldClubShortName),
		rec.ClubCode,
	)

	if rec.Category == "" && c.cfg.Categories != nil {
		rec.Category = c.cfg.Categories.Derive(rec.BirthDate, rec.Sex, seasonYear)
	}

	if tier, ok := c.cfg.TierByRelationType[rec.RelationType]; ok {
		rec.Tier = tier
	}

	return models.VerificationOutcome{
		Connected:     true,
		StatusMessage: status,
		Athlete:       rec,
	}
}

// OutcomeFromError converts a transport or protocol error into a negative
// outcome. Per the engine's contract every failure past input validation is
// a typed negative result, never a propagated exception.
func OutcomeFromError(err error) models.VerificationOutcome {
	code := dErrors.CodeOf(err)

	var hint string
	switch code {
	case dErrors.CodeTransportFailure, dErrors.CodeTimeout:
		code = dErrors.CodeTransportFailure
		hint = "federation service unreachable; try again later"
	case dErrors.CodeProtocolFault:
		hint = "federation service reported a fault; try again later"
	case dErrors.CodeUnparseableResponse:
		hint = "federation service returned an unexpected response"
	default:
		code = dErrors.CodeInternal
		hint = "verification failed unexpectedly"
	}

	var details string
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		details = dErr.Error()
	} else if err != nil {
		details = err.Error()
	}

	return models.VerificationOutcome{
		Connected: false,
		ErrorCode: code,
		Hint:      hint,
		Details:   details,
	}
}
