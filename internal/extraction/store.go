package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	storeNameScanLines          = 5
	storeNameFallbackConfidence = 0.3
)

// storeNamePatterns are tried in priority order against each header line.
// Capture group 1 is the store name.
var storeNamePatterns = []*regexp.Regexp{
	// known pharmacy and retail chains
	regexp.MustCompile(`(?i)^((?:cvs|walgreens|rite aid|walmart|wal-mart|target|costco|kroger|safeway|publix|wegmans|meijer|duane reade|sam'?s club|h-e-b|albertsons|fred meyer|hy-vee)\b[a-z&'. \-]*)`),
	// "Main Street Pharmacy", "CORNER MARKET"
	regexp.MustCompile(`^([A-Z][A-Za-z&'. \-]*?\s(?i:pharmacy|store|market|clinic))\b`),
	// "DR. JANE SMITH"
	regexp.MustCompile(`^((?i:dr\.)\s*[A-Za-z][A-Za-z. \-]*)`),
	// a whole line of capitals, e.g. "SMITH & SONS"
	regexp.MustCompile(`^([A-Z][A-Z0-9&'. \-]{2,})$`),
}

func extractStoreName(lines []string) Field[string] {
	for i, line := range lines {
		if i >= storeNameScanLines {
			break
		}
		for _, re := range storeNamePatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := CleanStoreName(m[1])
			if name == "" {
				continue
			}
			return found(name, 0.7+0.3*float64(storeNameScanLines-i)/storeNameScanLines)
		}
	}

	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if n > 3 && n < 50 && strings.IndexFunc(line, unicode.IsLetter) >= 0 {
			if name := CleanStoreName(line); name != "" {
				return found(name, storeNameFallbackConfidence)
			}
		}
	}

	return Field[string]{}
}
