// Package protocol implements the federation web service wire format: an
// XML-wrapped parameter envelope on the way out, and a positional
// comma-separated payload embedded in an XML result wrapper on the way back.
//
// The upstream format is undocumented and loosely typed. The field layout is
// modeled as a versioned schema (an ordered list of named descriptors) so a
// future layout change is a one-place edit instead of magic indices spread
// through the code.
package protocol

// Field names of the result payload, in wire order. The trailing fields are
// sometimes omitted by the upstream, so consumers must tolerate short lists.
const (
	FieldInfoExact        = "info_exact"          // exact-match flag, "O"/"N"
	FieldRelationValid    = "relation_valid"      // relation validity flag
	FieldMutated          = "mutated"             // club-mutation flag
	FieldHealthPass       = "health_pass"         // health pass required flag
	FieldCompetitionCode  = "competition_code"    // echoed competition code
	FieldEchoOne          = "echo_1"              // opaque echo field
	FieldEchoTwo          = "echo_2"              // opaque echo field
	FieldRelationID       = "relation_id"         // relation identifier
	FieldLastName         = "last_name"           //
	FieldFirstName        = "first_name"          //
	FieldSex              = "sex"                 //
	FieldBirthDate        = "birth_date"          // dd/mm/yyyy
	FieldNationality      = "nationality"         // ISO-ish country code
	FieldRelationType     = "relation_type"       // federation relation-type code
	FieldRelationExpiry   = "relation_expiry"     // dd/mm/yyyy
	FieldCategory         = "category"            // age category code
	FieldClubCode         = "club_code"           //
	FieldClubShortName    = "club_short_name"     //
	FieldClubFullName     = "club_full_name"      //
	FieldMutationClubCode = "mutation_club_code"  // target club of a pending mutation
	FieldMutationClubShrt = "mutation_club_short" //
	FieldMutationClubFull = "mutation_club_full"  //
	FieldDepartment       = "department"          //
	FieldLeague           = "league"              //
	FieldStatusMessage    = "status_message"      // trailing free-text status
)

// Schema describes one version of the positional payload layout.
type Schema struct {
	version string
	order   []string
	index   map[string]int
}

// NewSchema builds a schema from an ordered field list.
func NewSchema(version string, order []string) *Schema {
	index := make(map[string]int, len(order))
	for i, name := range order {
		index[name] = i
	}
	return &Schema{version: version, order: order, index: index}
}

// Version returns the schema version label.
func (s *Schema) Version() string { return s.version }

// Len returns the number of fields the schema describes.
func (s *Schema) Len() int { return len(s.order) }

// Index returns the wire position of a named field, or -1 when the schema
// does not describe it.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// CurrentSchema is the layout observed from the production federation
// service. Update here, and only here, when the upstream changes its layout.
func CurrentSchema() *Schema {
	return NewSchema("v1", []string{
		FieldInfoExact,
		FieldRelationValid,
		FieldMutated,
		FieldHealthPass,
		FieldCompetitionCode,
		FieldEchoOne,
		FieldEchoTwo,
		FieldRelationID,
		FieldLastName,
		FieldFirstName,
		FieldSex,
		FieldBirthDate,
		FieldNationality,
		FieldRelationType,
		FieldRelationExpiry,
		FieldCategory,
		FieldClubCode,
		FieldClubShortName,
		FieldClubFullName,
		FieldMutationClubCode,
		FieldMutationClubShrt,
		FieldMutationClubFull,
		FieldDepartment,
		FieldLeague,
		FieldStatusMessage,
	})
}
