package security

import "testing"

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	valid := []string{
		"Secure1!@",
		"Sup3r$ecretPass!",
		"K7#mQz9vTpL2@wX",
		"Glacier-Motif-88beat",
	}
	for _, password := range valid {
		if err := validator.Validate(password); err != nil {
			t.Fatalf("expected %q to pass, got %v", password, err)
		}
	}

	invalid := map[string]string{
		"short1!":      "below minimum length",
		"alllowercase": "single character class",
		"lowerand123":  "two character classes",
		"password123":  "two character classes, guessable",
	}
	for password, reason := range invalid {
		if err := validator.Validate(password); err == nil {
			t.Fatalf("expected %q to fail (%s)", password, reason)
		}
	}
}

func TestMinLengthRuleCountsRunes(t *testing.T) {
	rule := MinLengthRule(8)

	if err := rule.Validate("exactly8"); err != nil {
		t.Fatalf("expected 8 runes to pass, got %v", err)
	}
	if err := rule.Validate("seven77"); err == nil {
		t.Fatal("expected 7 runes to fail")
	}
}

func TestRequireCharacterClassesRule(t *testing.T) {
	rule := RequireCharacterClassesRule(3)

	if err := rule.Validate("Abc12345"); err != nil {
		t.Fatalf("expected upper+lower+digit to pass, got %v", err)
	}
	if err := rule.Validate("abc12345"); err == nil {
		t.Fatal("expected two classes to fail")
	}
}

func TestRequirePasswordStrengthRule(t *testing.T) {
	rule := RequirePasswordStrengthRule(1)

	if err := rule.Validate("password"); err == nil {
		t.Fatal("expected top dictionary word to fail the floor")
	}
	if err := rule.Validate("vX9#pLq2$wM7kZ4tR"); err != nil {
		t.Fatalf("expected random password to pass, got %v", err)
	}
	if err := RequirePasswordStrengthRule(0).Validate("password"); err != nil {
		t.Fatalf("expected disabled rule to pass everything, got %v", err)
	}
}

func TestPasswordStrengthScoreBounds(t *testing.T) {
	if score := PasswordStrengthScore("password"); score != 0 {
		t.Fatalf("expected score 0 for a top dictionary word, got %d", score)
	}
	if score := PasswordStrengthScore("vX9#pLq2$wM7kZ4tR"); score < 3 {
		t.Fatalf("expected high score for a random password, got %d", score)
	}
}
