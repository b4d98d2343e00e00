package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossard/internal/verify/models"
	dErrors "dossard/pkg/domain-errors"
)

func validRequest() models.VerificationRequest {
	return models.VerificationRequest{
		AccountID:     "club42",
		AccountSecret: "s3cret",
		RelationID:    "1756134",
	}
}

func TestBuildEnvelopeRelationOnly(t *testing.T) {
	env, err := BuildEnvelope(validRequest())
	require.NoError(t, err)

	assert.Contains(t, env, "<RelationNumber>1756134</RelationNumber>")
	assert.Contains(t, env, "<AccountCode>club42</AccountCode>")
	// Placeholder identity is substituted for relation-only lookups.
	assert.Contains(t, env, "<LastName>TEST</LastName>")
	assert.Contains(t, env, "<FirstName>TEST</FirstName>")
	assert.Contains(t, env, "<Sex>M</Sex>")
	assert.Contains(t, env, "<BornOn>01/01/1990</BornOn>")
	// Test-mode competition sentinels.
	assert.Contains(t, env, "<CompetitionCode>000000</CompetitionCode>")
	assert.Contains(t, env, "<CompetitionDate>01/01/2000</CompetitionDate>")
	assert.Contains(t, env, "<ShareConsent>N</ShareConsent>")
}

func TestBuildEnvelopeIdentityTriple(t *testing.T) {
	req := models.VerificationRequest{
		AccountID:       "club42",
		AccountSecret:   "s3cret",
		LastName:        "ROBERT",
		FirstName:       "JONATHAN",
		Sex:             "M",
		BirthDate:       "23/05/1991",
		CompetitionCode: "123456",
		CompetitionDate: "31/08/2017",
		ConsentShare:    true,
	}

	env, err := BuildEnvelope(req)
	require.NoError(t, err)

	assert.Contains(t, env, "<LastName>ROBERT</LastName>")
	assert.Contains(t, env, "<CompetitionCode>123456</CompetitionCode>")
	assert.Contains(t, env, "<ShareConsent>O</ShareConsent>")
	assert.NotContains(t, env, "TEST")
}

func TestBuildEnvelopeEscapesSpecialCharacters(t *testing.T) {
	req := models.VerificationRequest{
		AccountID:     "club42",
		AccountSecret: `p<a>s&s"w'd`,
		LastName:      "O'BRIEN & FILS",
		FirstName:     "JEAN",
		BirthDate:     "01/02/1980",
	}

	env, err := BuildEnvelope(req)
	require.NoError(t, err)

	assert.Contains(t, env, "<LastName>O&apos;BRIEN &amp; FILS</LastName>")
	assert.Contains(t, env, "<AccountPass>p&lt;a&gt;s&amp;s&quot;w&apos;d</AccountPass>")
	assert.NotContains(t, env, "O'BRIEN")
}

func TestBuildEnvelopeRejectsMissingInputs(t *testing.T) {
	tests := []struct {
		name string
		req  models.VerificationRequest
	}{
		{"no credentials", models.VerificationRequest{RelationID: "1756134"}},
		{"no relation and no identity", models.VerificationRequest{AccountID: "a", AccountSecret: "b"}},
		{"partial identity", models.VerificationRequest{AccountID: "a", AccountSecret: "b", LastName: "ROBERT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildEnvelope(tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRequest))
		})
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a&amp;b", Escape("a&b"))
	assert.Equal(t, "&lt;&gt;&quot;&apos;", Escape(`<>"'`))
	assert.Equal(t, "plain", Escape("plain"))
}
