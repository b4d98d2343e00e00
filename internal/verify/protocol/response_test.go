package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dossard/pkg/domain-errors"
)

// successPayload is a complete well-formed payload for relation 1756134.
const successPayload = "O,O,N,N,000000,100,200,1756134,ROBERT,JONATHAN,M,23/05/1991,FRA,COMP,31/08/2017,SE,075024,PUC,PARIS UC,,,,075,IDF,OK"

func wrap(payload string) string {
	return `<?xml version="1.0"?><soap:Envelope><soap:Body><VerifyRelationResponse>` +
		resultOpen + payload + resultClose +
		`</VerifyRelationResponse></soap:Body></soap:Envelope>`
}

func TestParseSuccess(t *testing.T) {
	fl, err := Parse(wrap(successPayload), CurrentSchema())
	require.NoError(t, err)

	assert.Equal(t, "O", fl.Get(FieldInfoExact))
	assert.Equal(t, "1756134", fl.Get(FieldRelationID))
	assert.Equal(t, "ROBERT", fl.Get(FieldLastName))
	assert.Equal(t, "JONATHAN", fl.Get(FieldFirstName))
	assert.Equal(t, "23/05/1991", fl.Get(FieldBirthDate))
	assert.Equal(t, "SE", fl.Get(FieldCategory))
	assert.Equal(t, "PARIS UC", fl.Get(FieldClubFullName))
	assert.Equal(t, "OK", fl.StatusMessage())
}

func TestParseShortPayloadNeverPanics(t *testing.T) {
	fl, err := Parse(wrap("O,O,N"), CurrentSchema())
	require.NoError(t, err)

	assert.Equal(t, "O", fl.Get(FieldInfoExact))
	assert.Equal(t, "", fl.Get(FieldRelationID))
	assert.Equal(t, "", fl.Get(FieldStatusMessage))
	assert.Equal(t, "", fl.At(999))
	assert.Equal(t, "", fl.At(-1))
}

func TestStatusMessageFallsBackToLastPopulatedField(t *testing.T) {
	// Some error paths truncate the payload; the status token then sits at
	// the end of a short list instead of its fixed position.
	fl, err := Parse(wrap("N,N,N,N,000000,,,,,E05"), CurrentSchema())
	require.NoError(t, err)
	assert.Equal(t, "E05", fl.StatusMessage())
}

func TestStatusMessageFixedPositionWins(t *testing.T) {
	fl, err := Parse(wrap(successPayload), CurrentSchema())
	require.NoError(t, err)
	// Field 24 is populated, so no end-scan happens.
	assert.Equal(t, "OK", fl.StatusMessage())
}

func TestStatusMessageEmptyPayload(t *testing.T) {
	fl, err := Parse(wrap(""), CurrentSchema())
	require.NoError(t, err)
	assert.Equal(t, "", fl.StatusMessage())
}

func TestParseFaultWrapper(t *testing.T) {
	body := `<soap:Envelope><soap:Body><soap:Fault><faultstring>Server was unable to process request</faultstring></soap:Fault></soap:Body></soap:Envelope>`

	_, err := Parse(body, CurrentSchema())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeProtocolFault))
	assert.Contains(t, err.Error(), "unable to process request")
}

func TestParseUnparseableBody(t *testing.T) {
	_, err := Parse("<html>502 Bad Gateway</html>", CurrentSchema())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnparseableResponse))
}

func TestParseBoundsSnippet(t *testing.T) {
	huge := strings.Repeat("x", 5000)
	_, err := Parse(huge, CurrentSchema())
	require.Error(t, err)
	// The whole upstream body must never be echoed back.
	assert.Less(t, len(err.Error()), 300)
}

func TestParseUnterminatedResultMarker(t *testing.T) {
	_, err := Parse(resultOpen+"O,O,N", CurrentSchema())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnparseableResponse))
}

func TestSchemaIndexUnknownField(t *testing.T) {
	assert.Equal(t, -1, CurrentSchema().Index("no_such_field"))
	assert.Equal(t, 25, CurrentSchema().Len())
	assert.Equal(t, "v1", CurrentSchema().Version())
}
