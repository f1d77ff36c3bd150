package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	amountBaseScore     = 0.5
	amountMaxConfidence = 0.95
	// lines past this fraction of the receipt get the position bonus
	amountTailFraction = 0.6
)

var (
	maxAmount = decimal.NewFromInt(10000)

	// amountPatterns capture a candidate total in group 1
	amountPatterns = []*regexp.Regexp{
		// TOTAL: $14.00, Amount Due 14.00, BALANCE 3.50
		regexp.MustCompile(`(?i)(?:total|amount|balance)[^0-9$]*\$?\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`),
		// 14.00 alone on its line
		regexp.MustCompile(`^\$?\s*(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})$`),
		// $14.00, $14.00 TOTAL
		regexp.MustCompile(`(?i)\$\s*(\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\d+(?:\.\d{2})?)(?:\s*(?:total|amount|due|balance))?`),
		// 14.00 TOTAL
		regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})\s*(?:total|amount|due|balance)`),
	}
)

func extractAmount(lines []string) Field[decimal.Decimal] {
	var best Field[decimal.Decimal]
	tail := float64(len(lines)) * amountTailFraction

	for i, line := range lines {
		lower := strings.ToLower(line)

		lineScore := amountBaseScore
		if strings.Contains(lower, "total") {
			lineScore += 0.3
		}
		if strings.Contains(lower, "amount") {
			lineScore += 0.2
		}
		if strings.Contains(lower, "balance") {
			lineScore += 0.15
		}
		if float64(i) > tail {
			lineScore += 0.2
		}

		for _, re := range amountPatterns {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				numeral := m[1]
				value, err := decimal.NewFromString(strings.ReplaceAll(numeral, ",", ""))
				if err != nil {
					continue
				}
				if !value.IsPositive() || value.GreaterThanOrEqual(maxAmount) {
					continue
				}

				score := lineScore
				if strings.Contains(numeral, ".") {
					score += 0.1
				}
				if score > amountMaxConfidence {
					score = amountMaxConfidence
				}

				// strictly greater keeps the first candidate on ties
				if !best.Found || score > best.Confidence {
					best = found(value, score)
				}
			}
		}
	}

	return best
}
