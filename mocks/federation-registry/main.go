package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort        = "8091"
	defaultAccountCode = "999999"
	defaultAccountPass = "federation-registry-secret"
	defaultLatencyMs   = "100"
)

var (
	accountCode = getEnv("ACCOUNT_CODE", defaultAccountCode)
	accountPass = getEnv("ACCOUNT_PASS", defaultAccountPass)
	latencyMs   = getEnvInt("LATENCY_MS", defaultLatencyMs)
)

var (
	relationNumberRe  = regexp.MustCompile(`<RelationNumber>([^<]*)</RelationNumber>`)
	accountCodeRe     = regexp.MustCompile(`<AccountCode>([^<]*)</AccountCode>`)
	accountPassRe     = regexp.MustCompile(`<AccountPass>([^<]*)</AccountPass>`)
	competitionCodeRe = regexp.MustCompile(`<CompetitionCode>([^<]*)</CompetitionCode>`)
)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/ws/verify", handleVerifyRelation)
	http.HandleFunc("/", handleVerifyRelation) // Legacy dispatcher accepts any path

	log.Printf("🏛️  Mock Federation Registry starting on port %s", port)
	log.Printf("🔑 Service account: %s / %s", accountCode, accountPass)
	log.Printf("⏱️  Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// relationFields builds a full 25-field result payload. Callers override
// individual positions for the error scenarios.
func relationFields(relationID, lastName, firstName, sex, birthDate, club, clubName string) []string {
	return []string{
		"O",        // info_exact
		"O",        // relation_valid
		"N",        // mutated
		"N",        // health_pass
		"000000",   // competition_code
		"100",      // echo_1
		"200",      // echo_2
		relationID, // relation_id
		lastName,
		firstName,
		sex,
		birthDate,
		"FRA",        // nationality
		"COMP",       // relation_type
		"31/08/2027", // relation_expiry
		"SE",         // category
		club,         // club_code
		clubName,     // club_short_name
		clubName,     // club_full_name
		"",           // mutation_club_code
		"",           // mutation_club_short
		"",           // mutation_club_full
		"075",        // department
		"IDF",        // league
		"OK",         // status_message
	}
}

// testRelations contains predefined results for magic relation numbers, so
// e2e tests can drive specific upstream behaviors.
var testRelations = map[string]func() []string{
	// The canonical happy-path athlete.
	"1756134": func() []string {
		return relationFields("1756134", "ROBERT", "JONATHAN", "M", "23/05/1991", "075024", "PUC")
	},
	// Regional-tier athlete with a health pass instead of a competition relation.
	"2001001": func() []string {
		f := relationFields("2001001", "MARTIN", "CLAIRE", "F", "02/11/1998", "094003", "VGA")
		f[3] = "O"    // health_pass
		f[13] = "REG" // relation_type
		return f
	},
	// Mid-season club mutation.
	"2002002": func() []string {
		f := relationFields("2002002", "BERNARD", "LUCAS", "M", "14/02/1989", "075024", "PUC")
		f[2] = "O" // mutated
		f[19] = "093012"
		f[20] = "EAB"
		f[21] = "EA BONDY"
		return f
	},
	// Suspended relation: present but not valid for competition.
	"2003003": func() []string {
		f := relationFields("2003003", "PETIT", "NADIA", "F", "30/07/1995", "075024", "PUC")
		f[1] = "N" // relation_valid
		return f
	},
	// Unknown relation number.
	"9990020": func() []string {
		return errorFields("E20")
	},
	// Relation expired for the requested season.
	"9990021": func() []string {
		return errorFields("E21")
	},
	// Identity details do not match the relation.
	"9990022": func() []string {
		return errorFields("E22")
	},
	// Relation administratively blocked.
	"9990010": func() []string {
		return errorFields("E10")
	},
	// Competition code not recognized.
	"9990031": func() []string {
		return errorFields("E31")
	},
}

// faultRelations trigger a SOAP fault instead of a result payload.
var faultRelations = map[string]string{
	"FAULT500": "Server was unable to process request",
	"FAULT001": "Object reference not set to an instance of an object",
}

// garbageRelations return a body with no recognizable markers at all, the
// way the legacy dispatcher behaves when its backend is down.
var garbageRelations = map[string]bool{
	"GARBAGE1": true,
}

// errorFields builds a sparse payload carrying only a status code, which is
// how the upstream reports lookup failures.
func errorFields(code string) []string {
	f := make([]string, 25)
	f[24] = code
	return f
}

func handleVerifyRelation(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	log.Printf("📥 Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		sendFault(w, "Method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		sendFault(w, "Unable to read request body")
		return
	}
	envelope := string(body)

	code := extractParam(accountCodeRe, envelope)
	pass := extractParam(accountPassRe, envelope)
	if code != accountCode || pass != accountPass {
		log.Printf("🚫 Rejected service account: %q", code)
		sendResult(w, errorFields("E05"))
		return
	}

	relationID := extractParam(relationNumberRe, envelope)
	if relationID == "" {
		sendFault(w, "RelationNumber is required")
		return
	}

	if msg, ok := faultRelations[relationID]; ok {
		log.Printf("💥 Returning fault for test relation: %s", relationID)
		sendFault(w, msg)
		return
	}
	if garbageRelations[relationID] {
		log.Printf("🗑️  Returning garbage body for test relation: %s", relationID)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html><body>Service Temporarily Unavailable</body></html>")
		return
	}

	var fields []string
	if testFn, ok := testRelations[relationID]; ok {
		fields = testFn()
		log.Printf("🧪 Using test relation data for: %s", relationID)
	} else {
		fields = generateRelation(relationID)
	}

	// Echo the competition code back the way the real service does.
	if compCode := extractParam(competitionCodeRe, envelope); compCode != "" && fields[24] == "OK" {
		fields[4] = compCode
	}

	sendResult(w, fields)
	log.Printf("✅ Relation lookup: %s -> %s %s (status=%s)", relationID, fields[9], fields[8], fields[24])
}

// generateRelation builds deterministic athlete data from the relation
// number, so unknown numbers still resolve consistently across calls.
func generateRelation(relationID string) []string {
	hash := sha256.Sum256([]byte(relationID))
	h := int(hash[0])

	lastNames := []string{"MARTIN", "BERNARD", "DUBOIS", "THOMAS", "ROBERT", "RICHARD", "PETIT", "DURAND", "LEROY", "MOREAU"}
	firstNamesM := []string{"JEAN", "PIERRE", "MICHEL", "ANDRE", "PHILIPPE", "LOUIS", "NICOLAS", "ANTOINE", "PAUL", "HUGO"}
	firstNamesF := []string{"MARIE", "JEANNE", "SOPHIE", "CAMILLE", "LEA", "CHLOE", "MANON", "JULIE", "SARAH", "LUCIE"}
	clubs := []struct{ code, name string }{
		{"075024", "PUC"},
		{"092003", "CAB"},
		{"093012", "EAB"},
		{"094003", "VGA"},
		{"031005", "TUC"},
	}
	relationTypes := []string{"COMP", "COMP", "COMP", "REG", "DEP", "LOI"}

	sex := "M"
	firstName := firstNamesM[(h*2)%len(firstNamesM)]
	if h%2 == 1 {
		sex = "F"
		firstName = firstNamesF[(h*2)%len(firstNamesF)]
	}
	lastName := lastNames[h%len(lastNames)]

	age := 18 + (h % 50)
	birthYear := time.Now().Year() - age
	birthDate := fmt.Sprintf("%02d/%02d/%04d", 1+(h%28), 1+(h%12), birthYear)

	club := clubs[h%len(clubs)]
	f := relationFields(relationID, lastName, firstName, sex, birthDate, club.code, club.name)
	f[13] = relationTypes[h%len(relationTypes)]
	if f[13] == "LOI" {
		// Leisure relations carry no competition validity.
		f[1] = "N"
	}
	return f
}

func sendResult(w http.ResponseWriter, fields []string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?><soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><VerifyRelationResponse xmlns="https://federation.example.org/ws/"><VerifyRelationResult>%s</VerifyRelationResult></VerifyRelationResponse></soap:Body></soap:Envelope>`,
		strings.Join(fields, ","))
}

func sendFault(w http.ResponseWriter, message string) {
	// The legacy dispatcher returns faults with a 200 status; only its
	// fronting proxy produces non-2xx responses.
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?><soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><soap:Fault><faultcode>soap:Server</faultcode><faultstring>%s</faultstring></soap:Fault></soap:Body></soap:Envelope>`,
		message)
	log.Printf("❌ Fault response: %s", message)
}

func extractParam(re *regexp.Regexp, body string) string {
	if m := re.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
