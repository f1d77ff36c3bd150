package extraction

// Reviewable field names, in reporting order
const (
	FieldStoreName = "store_name"
	FieldAmount    = "amount"
	FieldDate      = "date"
)

// ReviewFlags tells the caller which values a human should confirm
type ReviewFlags struct {
	Required       bool     `json:"review_required"`
	FieldsToVerify []string `json:"fields_to_verify"`
}

// Review flags the record when overall confidence is below threshold, and
// lists each field whose own confidence is below the same threshold.
func Review(c Confidence, threshold float64) ReviewFlags {
	flags := ReviewFlags{
		Required:       c.Overall < threshold,
		FieldsToVerify: make([]string, 0, 3),
	}
	if c.StoreName < threshold {
		flags.FieldsToVerify = append(flags.FieldsToVerify, FieldStoreName)
	}
	if c.Amount < threshold {
		flags.FieldsToVerify = append(flags.FieldsToVerify, FieldAmount)
	}
	if c.Date < threshold {
		flags.FieldsToVerify = append(flags.FieldsToVerify, FieldDate)
	}
	return flags
}
