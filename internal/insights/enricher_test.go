package insights

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"insight/internal/core"

	"github.com/shopspring/decimal"
)

func flexAmount(v string) core.FlexAmount {
	d, _ := decimal.NewFromString(v)
	return core.FlexAmount{Value: d, Valid: true}
}

func nestedAmount(v, currency string) *core.NestedAmount {
	d, _ := decimal.NewFromString(v)
	return &core.NestedAmount{Amount: core.FlexDecimal{Value: d, Valid: true}, Currency: currency}
}

func TestEnrich_AmountResolution(t *testing.T) {
	e := NewEnricher()

	tests := []struct {
		name         string
		raw          core.RawTransaction
		wantAmount   string
		wantCurrency string
	}{
		{
			name:         "nested transaction amount wins",
			raw:          core.RawTransaction{TransactionAmount: nestedAmount("-12.50", "GBP"), Amount: flexAmount("-99")},
			wantAmount:   "-12.5",
			wantCurrency: "GBP",
		},
		{
			name:         "flat amount",
			raw:          core.RawTransaction{Amount: flexAmount("-7.30"), Currency: "SEK"},
			wantAmount:   "-7.3",
			wantCurrency: "SEK",
		},
		{
			name:         "missing amount defaults to zero EUR",
			raw:          core.RawTransaction{Description: "mystery"},
			wantAmount:   "0",
			wantCurrency: "EUR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Enrich(tt.raw)
			if got.Amount.String() != tt.wantAmount {
				t.Errorf("amount = %s, want %s", got.Amount.String(), tt.wantAmount)
			}
			if got.Currency != tt.wantCurrency {
				t.Errorf("currency = %s, want %s", got.Currency, tt.wantCurrency)
			}
		})
	}
}

func TestEnrich_AmountFromJSONVariants(t *testing.T) {
	// Amounts arrive as numbers, strings, or nested objects depending on the
	// source; all must resolve identically.
	payloads := []string{
		`{"transactionAmount":{"amount":"-9.99","currency":"EUR"}}`,
		`{"transactionAmount":{"amount":-9.99,"currency":"EUR"}}`,
		`{"amount":{"amount":"-9.99","currency":"EUR"}}`,
		`{"amount":-9.99,"currency":"EUR"}`,
	}
	e := NewEnricher()
	for _, p := range payloads {
		var raw core.RawTransaction
		if err := json.Unmarshal([]byte(p), &raw); err != nil {
			t.Fatalf("unmarshal %s: %v", p, err)
		}
		got := e.Enrich(raw)
		if got.Amount.String() != "-9.99" {
			t.Errorf("payload %s: amount = %s, want -9.99", p, got.Amount.String())
		}
		if got.Currency != "EUR" {
			t.Errorf("payload %s: currency = %s, want EUR", p, got.Currency)
		}
	}
}

func TestEnrich_MerchantResolution(t *testing.T) {
	e := NewEnricher()

	tests := []struct {
		name string
		raw  core.RawTransaction
		want string
	}{
		{
			name: "merchant object wins",
			raw: core.RawTransaction{
				Merchant:     &core.RawMerchant{Name: "Netflix"},
				CreditorName: "NETFLIX INTERNATIONAL BV",
			},
			want: "Netflix",
		},
		{
			name: "enrichment merchant next",
			raw: core.RawTransaction{
				Enrichment:   &core.RawEnrichment{MerchantName: "Spotify"},
				CreditorName: "SPOTIFY AB",
			},
			want: "Spotify",
		},
		{
			name: "creditor name",
			raw:  core.RawTransaction{CreditorName: "British Gas"},
			want: "British Gas",
		},
		{
			name: "debtor name",
			raw:  core.RawTransaction{DebtorName: "ACME Ltd"},
			want: "ACME Ltd",
		},
		{
			name: "derived from description tokens",
			raw:  core.RawTransaction{Description: "TESCO EXPRESS 1234 LONDON"},
			want: "Tesco Express",
		},
		{
			name: "short tokens skipped",
			raw:  core.RawTransaction{Description: "at to CORNER SHOP"},
			want: "Corner Shop",
		},
		{
			name: "no usable tokens",
			raw:  core.RawTransaction{Description: "a b c"},
			want: "Unknown",
		},
		{
			name: "empty record",
			raw:  core.RawTransaction{},
			want: "Transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Enrich(tt.raw)
			if got.Merchant != tt.want {
				t.Errorf("merchant = %q, want %q", got.Merchant, tt.want)
			}
		})
	}
}

func TestEnrich_CategoryDecision(t *testing.T) {
	e := NewEnricher()

	t.Run("usable supplied category goes through mapper", func(t *testing.T) {
		raw := core.RawTransaction{
			Amount:         flexAmount("-20"),
			Description:    "card purchase",
			Categorisation: &core.RawCategorisation{Category: "Eating Out"},
		}
		got := e.Enrich(raw)
		if got.Category != "Eating Out" {
			t.Errorf("category = %s, want Eating Out", got.Category)
		}
		if got.OriginalCategory != "Eating Out" {
			t.Errorf("originalCategory = %q, want Eating Out", got.OriginalCategory)
		}
		if got.InferredCategory != "" {
			t.Errorf("inferredCategory = %q, want empty", got.InferredCategory)
		}
	})

	t.Run("generic supplied category falls back to inference", func(t *testing.T) {
		raw := core.RawTransaction{
			Amount:         flexAmount("-12"),
			Description:    "Tesco Express",
			Categorisation: &core.RawCategorisation{Category: "Payments"},
		}
		got := e.Enrich(raw)
		if got.Category != "Groceries" {
			t.Errorf("category = %s, want Groceries", got.Category)
		}
		if got.CategoryIcon != "🛒" {
			t.Errorf("icon = %s, want 🛒", got.CategoryIcon)
		}
		if got.OriginalCategory != "" {
			t.Errorf("originalCategory = %q, want empty", got.OriginalCategory)
		}
		if got.InferredCategory != "Groceries" {
			t.Errorf("inferredCategory = %q, want Groceries", got.InferredCategory)
		}
	})

	t.Run("categories array first element", func(t *testing.T) {
		raw := core.RawTransaction{
			Amount:         flexAmount("-12"),
			Categorisation: &core.RawCategorisation{Categories: []string{"Groceries", "Shopping"}},
		}
		got := e.Enrich(raw)
		if got.Category != "Groceries" {
			t.Errorf("category = %s, want Groceries", got.Category)
		}
	})

	t.Run("bank code most specific non-generic", func(t *testing.T) {
		raw := core.RawTransaction{
			Amount: flexAmount("-30"),
			BankTransactionCode: &core.RawBankCode{
				DomainName:    "Payments",
				FamilyName:    "Utilities",
				SubFamilyName: "Card Payments",
			},
		}
		got := e.Enrich(raw)
		// Sub-family is generic, family is not.
		if got.Category != "Utilities" {
			t.Errorf("category = %s, want Utilities", got.Category)
		}
		if got.OriginalCategory != "Utilities" {
			t.Errorf("originalCategory = %q, want Utilities", got.OriginalCategory)
		}
	})
}

func TestEnrich_DisplayDescription(t *testing.T) {
	e := NewEnricher()

	tests := []struct {
		name string
		raw  core.RawTransaction
		want string
	}{
		{
			name: "remittance text preferred",
			raw: core.RawTransaction{
				Description:            "POS 1234",
				RemittanceUnstructured: "Monthly gym membership",
			},
			want: "Monthly gym membership",
		},
		{
			name: "reference when distinct",
			raw: core.RawTransaction{
				Description: "POS 1234",
				Reference:   "INV-2024-001",
			},
			want: "INV-2024-001",
		},
		{
			name: "transaction information lines joined",
			raw: core.RawTransaction{
				Description:            "POS",
				TransactionInformation: []string{"COFFEE SHOP", "LONDON"},
			},
			want: "COFFEE SHOP LONDON",
		},
		{
			name: "falls back to working description",
			raw:  core.RawTransaction{Description: "plain description"},
			want: "plain description",
		},
		{
			name: "empty record defaults",
			raw:  core.RawTransaction{},
			want: "Transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Enrich(tt.raw)
			if got.Description != tt.want {
				t.Errorf("description = %q, want %q", got.Description, tt.want)
			}
		})
	}
}

func TestEnrich_DateResolution(t *testing.T) {
	e := NewEnricher()

	tests := []struct {
		name string
		raw  core.RawTransaction
		want time.Time
	}{
		{
			name: "booking date wins",
			raw: core.RawTransaction{
				BookingDateTime: "2024-03-05T10:30:00Z",
				ValueDateTime:   "2024-03-06T00:00:00Z",
			},
			want: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "value date next",
			raw:  core.RawTransaction{ValueDateTime: "2024-03-06"},
			want: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "generic date field",
			raw:  core.RawTransaction{Date: "2024-01-15"},
			want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "unparseable yields zero time",
			raw:  core.RawTransaction{Date: "yesterday-ish"},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Enrich(tt.raw)
			if !got.Date.Equal(tt.want) {
				t.Errorf("date = %v, want %v", got.Date, tt.want)
			}
		})
	}
}

func TestEnrich_Idempotent(t *testing.T) {
	e := NewEnricher()
	raw := core.RawTransaction{
		ID:              "tx-1",
		Amount:          flexAmount("-12"),
		Description:     "Tesco Express",
		BookingDateTime: "2024-02-01T09:00:00Z",
	}

	first := e.Enrich(raw)
	second := e.Enrich(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated enrichment differs: %+v vs %+v", first, second)
	}
	if e.Cache().Size() != 1 {
		t.Errorf("cache size = %d, want 1", e.Cache().Size())
	}
}

func TestEnrich_CreditFlagAndCounterparties(t *testing.T) {
	e := NewEnricher()

	got := e.Enrich(core.RawTransaction{
		Amount:       flexAmount("100"),
		Description:  "salary payment",
		CreditorName: "Jane Doe",
		DebtorName:   "ACME Ltd",
	})
	if !got.IsCredit {
		t.Error("positive amount should be credit")
	}
	if got.Category != "Income" {
		t.Errorf("category = %s, want Income", got.Category)
	}
	if got.PayeeName != "Jane Doe" || got.PayerName != "ACME Ltd" {
		t.Errorf("payee/payer = %q/%q", got.PayeeName, got.PayerName)
	}

	got = e.Enrich(core.RawTransaction{Amount: flexAmount("-1")})
	if got.IsCredit {
		t.Error("negative amount should not be credit")
	}
}
