package derivation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"cafe", "Cafe Milano downtown", "Meals & Entertainment"},
		{"hotel", "CITY HOTEL invoice 44", "Travel & Accommodation"},
		{"ride service", "Uber trip receipt", "Transport"},
		{"office supplies", "Office World order", "Office Supplies"},
		{"no match", "Something Unrelated", "General Expenses"},
		{"case insensitive", "TAXI ZENTRALE", "Transport"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text, DefaultRules())
			if got.Account != tc.want {
				t.Fatalf("Classify(%q).Account = %q, want %q", tc.text, got.Account, tc.want)
			}
		})
	}
}

func TestClassify_OrderSensitive(t *testing.T) {
	// Text matching two rules: the earlier-declared rule wins.
	got := Classify("cafe at the office park", DefaultRules())
	if got.Account != "Meals & Entertainment" {
		t.Fatalf("earlier rule should win, got %q", got.Account)
	}

	// Reversing the declaration order flips the outcome.
	reversed := []ClassifierRule{
		{Keyword: "office", Account: "Office Supplies", Description: "Office supplies"},
		{Keyword: "cafe", Account: "Meals & Entertainment", Description: "Cafe purchase"},
	}
	got = Classify("cafe at the office park", reversed)
	if got.Account != "Office Supplies" {
		t.Fatalf("reversed order should flip the match, got %q", got.Account)
	}
}

func TestClassify_Default(t *testing.T) {
	got := Classify("nothing that matches", nil)
	if got != DefaultCategory {
		t.Fatalf("expected default category, got %+v", got)
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("preserves declaration order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `rules:
  - keyword: cafe
    account: "Meals & Entertainment"
    description: Cafe purchase
  - keyword: office
    account: "Office Supplies"
    description: Office supplies
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		rules, err := LoadRules(path)
		if err != nil {
			t.Fatalf("LoadRules failed: %v", err)
		}
		if len(rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(rules))
		}
		if rules[0].Keyword != "cafe" || rules[1].Keyword != "office" {
			t.Fatalf("rule order not preserved: %+v", rules)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("empty table returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		if err := os.WriteFile(path, []byte("rules: []\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRules(path); err == nil {
			t.Fatal("expected error for empty rule table")
		}
	})

	t.Run("rule without account returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		if err := os.WriteFile(path, []byte("rules:\n  - keyword: cafe\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadRules(path); err == nil {
			t.Fatal("expected error for incomplete rule")
		}
	})
}
