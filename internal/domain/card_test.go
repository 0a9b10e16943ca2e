package domain

import (
	"testing"
	"time"
)

var cardTestNow = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

func validCard() CreditCardData {
	return CreditCardData{
		HolderName:  "MARIA S SILVA",
		Number:      "4539148803436467",
		ExpiryMonth: 12,
		ExpiryYear:  2027,
		CVV:         "123",
	}
}

func TestValidateCreditCard_Valid(t *testing.T) {
	errs := ValidateCreditCard(validCard(), cardTestNow)
	if errs.HasErrors() {
		t.Fatalf("expected valid card, got errors: %v", errs)
	}
}

func TestValidateCreditCard_Luhn(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{"known good visa", "4539148803436467", true},
		{"last digit off by one", "4539148803436468", false},
		{"empty", "", false},
		{"too short", "4111", false},
		{"letters", "4539abc803436467", false},
		{"good with spaces", "4539 1488 0343 6467", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			card.Number = tt.number
			errs := ValidateCreditCard(card, cardTestNow)
			if tt.valid && errs.GetByField("number") != "" {
				t.Errorf("number %q: unexpected error %q", tt.number, errs.GetByField("number"))
			}
			if !tt.valid && errs.GetByField("number") == "" {
				t.Errorf("number %q: expected a number violation", tt.number)
			}
		})
	}
}

func TestValidateCreditCard_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		month   int
		year    int
		expired bool
	}{
		{"current month is still valid", 3, 2026, false},
		{"previous month", 2, 2026, true},
		{"previous year", 12, 2025, true},
		{"next year", 1, 2027, false},
		{"month out of range", 27, 2027, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := validCard()
			card.ExpiryMonth = tt.month
			card.ExpiryYear = tt.year
			errs := ValidateCreditCard(card, cardTestNow)
			got := errs.GetByField("expiry") != ""
			if tt.month < 1 || tt.month > 12 {
				if errs.GetByField("expiry_month") == "" {
					t.Errorf("expected expiry_month violation for month %d", tt.month)
				}
				return
			}
			if got != tt.expired {
				t.Errorf("month=%d year=%d: expired=%v, want %v", tt.month, tt.year, got, tt.expired)
			}
		})
	}
}

func TestValidateCreditCard_ReportsAllViolations(t *testing.T) {
	card := CreditCardData{
		HolderName:  "  ",
		Number:      "4539148803436468",
		ExpiryMonth: 1,
		ExpiryYear:  2020,
		CVV:         "12",
	}

	errs := ValidateCreditCard(card, cardTestNow)
	for _, field := range []string{"holder_name", "number", "expiry", "cvv"} {
		if errs.GetByField(field) == "" {
			t.Errorf("expected violation for field %q, got fields %v", field, errs.Fields())
		}
	}
	if len(errs) != 4 {
		t.Errorf("expected 4 violations, got %d: %v", len(errs), errs)
	}
}

func TestValidateCreditCard_TwoDigitYear(t *testing.T) {
	card := validCard()
	card.ExpiryYear = 25 // 2025, уже в прошлом
	errs := ValidateCreditCard(card, cardTestNow)
	if errs.GetByField("expiry") == "" {
		t.Error("expected two digit year 25 to be treated as 2025 and expired")
	}

	card.ExpiryYear = 28
	errs = ValidateCreditCard(card, cardTestNow)
	if errs.HasErrors() {
		t.Errorf("expected two digit year 28 to be valid, got %v", errs)
	}
}
