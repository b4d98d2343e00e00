package protocol

import (
	"fmt"
	"strings"

	"dossard/internal/verify/models"
)

// Wire constants for the outbound call. The action header identifies the
// operation to the legacy SOAP dispatcher; the content type is mandatory.
const (
	ContentType = "text/xml; charset=utf-8"
	Action      = "https://federation.example.org/ws/VerifyRelation"
)

// Test-mode sentinels sent when the caller supplies no production
// competition reference. The upstream accepts these for dry-run lookups.
const (
	TestCompetitionCode = "000000"
	TestCompetitionDate = "01/01/2000"
)

// Placeholder identity sent for relation-only lookups.
//
// This is a compatibility shim for the upstream service, which requires the
// identity parameters to be present even when the relation identifier alone
// drives the lookup, and tolerates neutral placeholders in that case. Keep
// this behavior isolated here; it must not leak into other request paths.
const (
	placeholderName      = "TEST"
	placeholderSex       = "M"
	placeholderBirthDate = "01/01/1990"
)

// xmlEscaper escapes the wire format's special characters in free-text
// parameters. The upstream parser is fragile; an unescaped ampersand in a
// club or athlete name breaks the whole envelope.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape escapes a free-text value for inclusion in the envelope.
func Escape(v string) string {
	return xmlEscaper.Replace(v)
}

// BuildEnvelope assembles the transport-ready XML envelope for a
// verification request. It validates the request first and applies the
// placeholder and test-mode defaults documented above.
func BuildEnvelope(req models.VerificationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	lastName, firstName, sex, birthDate := req.LastName, req.FirstName, req.Sex, req.BirthDate
	if !req.HasIdentityTriple() {
		lastName = placeholderName
		firstName = placeholderName
		sex = placeholderSex
		birthDate = placeholderBirthDate
	}
	if sex == "" {
		sex = placeholderSex
	}

	competitionCode := req.CompetitionCode
	if competitionCode == "" {
		competitionCode = TestCompetitionCode
	}
	competitionDate := req.CompetitionDate
	if competitionDate == "" {
		competitionDate = TestCompetitionDate
	}

	consent := "N"
	if req.ConsentShare {
		consent = "O"
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`)
	b.WriteString(`<soap:Body><VerifyRelation xmlns="https://federation.example.org/ws/">`)
	writeParam(&b, "AccountCode", req.AccountID)
	writeParam(&b, "AccountPass", req.AccountSecret)
	writeParam(&b, "RelationNumber", req.RelationID)
	writeParam(&b, "LastName", lastName)
	writeParam(&b, "FirstName", firstName)
	writeParam(&b, "Sex", sex)
	writeParam(&b, "BornOn", birthDate)
	writeParam(&b, "CompetitionCode", competitionCode)
	writeParam(&b, "CompetitionDate", competitionDate)
	writeParam(&b, "ShareConsent", consent)
	b.WriteString(`</VerifyRelation></soap:Body></soap:Envelope>`)

	return b.String(), nil
}

func writeParam(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "<%s>%s</%s>", name, Escape(value), name)
}
