package extraction

import "strings"

// Category is the HSA expense category of a receipt
type Category string

const (
	Pharmacy      Category = "Pharmacy"
	Dental        Category = "Dental"
	Vision        Category = "Vision"
	DoctorVisit   Category = "DoctorVisit"
	MedicalDevice Category = "MedicalDevice"
	Other         Category = "Other"
)

// Categories lists every category in classification order
var Categories = []Category{Pharmacy, Dental, Vision, DoctorVisit, MedicalDevice, Other}

type categoryRule struct {
	category      Category
	storeKeywords []string
	itemKeywords  []string
}

// categoryRules are evaluated in order; the first match wins
var categoryRules = []categoryRule{
	{category: Pharmacy, storeKeywords: []string{"pharmacy", "cvs", "walgreens", "rite aid"}},
	{category: Dental, storeKeywords: []string{"dental", "orthodont", "tooth"}, itemKeywords: []string{"dental", "orthodont", "tooth"}},
	{category: Vision, storeKeywords: []string{"vision", "eye", "optical"}, itemKeywords: []string{"glasses", "contact"}},
	{category: DoctorVisit, storeKeywords: []string{"dr.", "doctor", "clinic", "medical"}},
	{category: MedicalDevice, itemKeywords: []string{"thermometer", "bandage", "medical device", "monitor"}},
}

// Classify maps a store name and its line items to a category
func Classify(storeName string, items []LineItem) Category {
	store := strings.ToLower(storeName)
	descriptions := make([]string, len(items))
	for i, item := range items {
		descriptions[i] = strings.ToLower(item.Description)
	}

	for _, rule := range categoryRules {
		if containsAny(store, rule.storeKeywords) {
			return rule.category
		}
		for _, d := range descriptions {
			if containsAny(d, rule.itemKeywords) {
				return rule.category
			}
		}
	}
	return Other
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

