package derivation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassifierRule maps a keyword to an expense category. Rules are evaluated
// in declaration order with case-insensitive substring matching; the first
// hit wins, so earlier rules take priority over later, more generic ones.
// The ordering is part of the contract and must not be re-sorted.
type ClassifierRule struct {
	Keyword     string `yaml:"keyword"`
	Account     string `yaml:"account"`
	Description string `yaml:"description"`
}

// Category is the classification outcome: the expense account to debit and
// a human-readable description for the entry.
type Category struct {
	Account     string
	Description string
}

// DefaultCategory is returned when no rule matches.
var DefaultCategory = Category{
	Account:     "General Expenses",
	Description: "General business expense",
}

// DefaultRules is the compiled-in classification rule table, used when no
// rule file is configured. Order is significant.
func DefaultRules() []ClassifierRule {
	return []ClassifierRule{
		{Keyword: "cafe", Account: "Meals & Entertainment", Description: "Cafe purchase"},
		{Keyword: "restaurant", Account: "Meals & Entertainment", Description: "Restaurant meal"},
		{Keyword: "coffee", Account: "Meals & Entertainment", Description: "Coffee purchase"},
		{Keyword: "bakery", Account: "Meals & Entertainment", Description: "Bakery purchase"},
		{Keyword: "hotel", Account: "Travel & Accommodation", Description: "Hotel stay"},
		{Keyword: "flight", Account: "Travel & Accommodation", Description: "Flight booking"},
		{Keyword: "airline", Account: "Travel & Accommodation", Description: "Flight booking"},
		{Keyword: "taxi", Account: "Transport", Description: "Taxi fare"},
		{Keyword: "uber", Account: "Transport", Description: "Ride service"},
		{Keyword: "fuel", Account: "Transport", Description: "Fuel purchase"},
		{Keyword: "parking", Account: "Transport", Description: "Parking fee"},
		{Keyword: "pharmacy", Account: "Medical Expenses", Description: "Pharmacy purchase"},
		{Keyword: "chemist", Account: "Medical Expenses", Description: "Pharmacy purchase"},
		{Keyword: "software", Account: "Software & Subscriptions", Description: "Software purchase"},
		{Keyword: "saas", Account: "Software & Subscriptions", Description: "Software subscription"},
		{Keyword: "license", Account: "Software & Subscriptions", Description: "Software license"},
		{Keyword: "hosting", Account: "Software & Subscriptions", Description: "Hosting service"},
		{Keyword: "office", Account: "Office Supplies", Description: "Office supplies"},
		{Keyword: "stationery", Account: "Office Supplies", Description: "Stationery purchase"},
		{Keyword: "supermarket", Account: "General Expenses", Description: "Supermarket purchase"},
	}
}

// Classify maps merchant name / free text to an expense category using the
// given ordered rule table. Matching is case-insensitive substring; the
// first matching rule wins. Returns DefaultCategory when nothing matches.
func Classify(text string, rules []ClassifierRule) Category {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		if strings.Contains(lower, strings.ToLower(rule.Keyword)) {
			return Category{Account: rule.Account, Description: rule.Description}
		}
	}
	return DefaultCategory
}

// ruleFile is the YAML shape of an external rule table.
type ruleFile struct {
	Rules []ClassifierRule `yaml:"rules"`
}

// LoadRules reads an ordered classification rule table from a YAML file.
// Declaration order in the file is preserved.
func LoadRules(path string) ([]ClassifierRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	for i, r := range f.Rules {
		if r.Keyword == "" || r.Account == "" {
			return nil, fmt.Errorf("rule %d is missing keyword or account", i)
		}
	}

	return f.Rules, nil
}
