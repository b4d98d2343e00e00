package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
		kind  Kind
	}{
		{"six digit license", "175613", true, KindLicense},
		{"seven digit license", "1756134", true, KindLicense},
		{"participation pass", "T123456", true, KindParticipationPass},
		{"health pass", "P12345ABCDE", true, KindHealthPass},
		{"loyalty card", "CF123456", true, KindLoyaltyCard},
		{"empty", "", false, KindUnknown},
		{"five digits too short", "12345", false, KindUnknown},
		{"eight digits too long", "12345678", false, KindUnknown},
		{"pass with seven digits", "T1234567", false, KindUnknown},
		{"pass lowercase prefix", "t123456", false, KindUnknown},
		{"health pass too short", "P12345", false, KindUnknown},
		{"loyalty card with letters", "CF12A456", false, KindUnknown},
		{"embedded whitespace", "175 613", false, KindUnknown},
		{"leading whitespace", " 175613", false, KindUnknown},
		{"arbitrary text", "not-an-id", false, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw)
			assert.Equal(t, tt.raw, got.Raw)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.kind, got.Kind)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// A seven digit numeric string is a license even though longer prefixed
	// patterns exist; rule order is fixed.
	got := Classify("1234567")
	assert.Equal(t, KindLicense, got.Kind)
}

func TestClassifyLicenseProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.StringMatching(`[0-9]{6,7}`).Draw(t, "raw")
		got := Classify(raw)
		if !got.Valid || got.Kind != KindLicense {
			t.Fatalf("expected %q to classify as a valid license, got %+v", raw, got)
		}
	})
}

func TestClassifyNonMatchingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Strings containing a character outside the identifier alphabets can
		// never classify as valid.
		raw := rapid.StringMatching(`[a-z]{1,5}[!@#%]{1,3}[a-z0-9]{0,8}`).Draw(t, "raw")
		got := Classify(raw)
		if got.Valid {
			t.Fatalf("expected %q to be invalid, got %+v", raw, got)
		}
		if got.Kind != KindUnknown {
			t.Fatalf("expected KindUnknown for %q, got %v", raw, got.Kind)
		}
	})
}
