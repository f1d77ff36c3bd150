package extraction

import (
	"regexp"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxLineItems       = 15
	minItemLineLength  = 3
	maxItemLineLength  = 60
	minDescriptionSize = 3
)

var (
	maxItemPrice = decimal.NewFromInt(1000)

	// itemExclusion matches summary and payment lines that look like items
	itemExclusion = regexp.MustCompile(`(?i)^(?:total|subtotal|tax|amount|balance|change|cash|card|visa|mastercard|debit|credit|thank|receipt|store|pharmacy|date|time)`)

	// itemPatterns capture the description in group 1 and the price in group 2
	itemPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(.+?)\s+(\d+\.\d{2})$`),
		regexp.MustCompile(`^(.+?)\s+\$\s?(\d+\.\d{2})$`),
		regexp.MustCompile(`^(.+?)\s+\$?(\d+(?:\.\d{1,2})?)$`),
	}
)

func extractLineItems(lines []string) []LineItem {
	var items []LineItem

	for _, line := range lines {
		if len(items) == maxLineItems {
			break
		}
		n := utf8.RuneCountInString(line)
		if n < minItemLineLength || n > maxItemLineLength || itemExclusion.MatchString(line) {
			continue
		}

		for _, re := range itemPatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if item, ok := newLineItem(m[1], m[2]); ok {
				items = append(items, item)
			}
			break
		}
	}

	return items
}

func newLineItem(description, price string) (LineItem, bool) {
	desc := CleanItemDescription(description)
	if utf8.RuneCountInString(desc) < minDescriptionSize {
		return LineItem{}, false
	}
	p, err := decimal.NewFromString(price)
	if err != nil || !p.IsPositive() || p.GreaterThanOrEqual(maxItemPrice) {
		return LineItem{}, false
	}
	return LineItem{Description: desc, Price: p.StringFixed(2)}, true
}
