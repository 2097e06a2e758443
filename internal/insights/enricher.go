package insights

import (
	"strings"
	"time"

	"insight/internal/cache"
	"insight/internal/core"

	"github.com/shopspring/decimal"
)

const (
	defaultCurrency    = "EUR"
	defaultDescription = "Transaction"
	defaultMerchant    = "Unknown"

	defaultCacheSize = 4096
	defaultCacheTTL  = 30 * time.Minute
)

// Enricher derives the normalized EnrichedTransaction view from raw records.
// Results are memoized per record ID in an explicit cache rather than by
// mutating the raw record, so enrichment is idempotent and cheap on repeated
// access. Enrichment never fails: every resolution step falls back to a safe
// default.
type Enricher struct {
	memo *cache.LRU[core.EnrichedTransaction]
}

// NewEnricher creates an enricher with a default-sized memo cache.
func NewEnricher() *Enricher {
	return NewEnricherWithCache(defaultCacheSize, defaultCacheTTL)
}

// NewEnricherWithCache creates an enricher with an explicitly sized memo.
func NewEnricherWithCache(size int, ttl time.Duration) *Enricher {
	return &Enricher{memo: cache.NewLRU[core.EnrichedTransaction](size, ttl)}
}

// Cache exposes the memo for lifecycle management (janitor start/stop).
func (e *Enricher) Cache() *cache.LRU[core.EnrichedTransaction] { return e.memo }

// Enrich resolves a raw transaction into its enriched view. Records with an
// identifier are memoized; records without one are computed fresh each call
// (the computation is deterministic either way).
func (e *Enricher) Enrich(raw core.RawTransaction) core.EnrichedTransaction {
	key := raw.Key()
	if key != "" {
		if cached, ok := e.memo.Get(key); ok {
			return cached
		}
	}

	enriched := enrich(raw)
	if key != "" {
		e.memo.Set(key, enriched)
	}
	return enriched
}

// EnrichAll enriches a slice in order.
func (e *Enricher) EnrichAll(raws []core.RawTransaction) []core.EnrichedTransaction {
	out := make([]core.EnrichedTransaction, len(raws))
	for i, raw := range raws {
		out[i] = e.Enrich(raw)
	}
	return out
}

func enrich(raw core.RawTransaction) core.EnrichedTransaction {
	amount, currency := resolveAmount(raw)
	working := resolveWorkingDescription(raw)
	merchant := resolveMerchant(raw, working)

	supplied := resolveSuppliedCategory(raw)

	var info core.CategoryInfo
	var original, inferred string
	if supplied != "" && !IsGenericCategory(supplied) {
		info = MapCategory(supplied, amount)
		original = supplied
	} else {
		info = InferCategory(working, merchant, amount)
		inferred = info.Category
	}

	return core.EnrichedTransaction{
		ID:               raw.Key(),
		Amount:           amount,
		Currency:         currency,
		Description:      resolveDisplayDescription(raw, working),
		Merchant:         merchant,
		Category:         info.Category,
		CategoryIcon:     info.Icon,
		CategoryColor:    info.Color,
		Date:             ResolveDate(raw),
		IsCredit:         !amount.IsNegative(),
		OriginalCategory: original,
		InferredCategory: inferred,
		PayeeName:        firstNonEmpty(raw.CreditorName, raw.PayeeName),
		PayerName:        firstNonEmpty(raw.DebtorName, raw.PayerName),
	}
}

// resolveAmount tries the nested transaction-amount object, then the flat
// (or nested) amount field, then falls back to zero EUR.
func resolveAmount(raw core.RawTransaction) (decimal.Decimal, string) {
	type resolved struct {
		amount   decimal.Decimal
		currency string
		ok       bool
	}
	chain := []func() resolved{
		func() resolved {
			if raw.TransactionAmount != nil && raw.TransactionAmount.Amount.Valid {
				return resolved{raw.TransactionAmount.Amount.Value, raw.TransactionAmount.Currency, true}
			}
			return resolved{}
		},
		func() resolved {
			if raw.Amount.Valid {
				return resolved{raw.Amount.Value, raw.Amount.Currency, true}
			}
			return resolved{}
		},
	}
	for _, step := range chain {
		if r := step(); r.ok {
			return r.amount, firstNonEmpty(r.currency, raw.Currency, defaultCurrency)
		}
	}
	return decimal.Zero, firstNonEmpty(raw.Currency, defaultCurrency)
}

func resolveWorkingDescription(raw core.RawTransaction) string {
	for _, s := range []string{raw.Description, raw.RemittanceUnstructured, raw.Reference} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return defaultDescription
}

// resolveMerchant tries explicit counterparty names in priority order and
// only then derives a merchant from the description text.
func resolveMerchant(raw core.RawTransaction, working string) string {
	chain := []func() string{
		func() string {
			if raw.Merchant != nil {
				return raw.Merchant.Name
			}
			return ""
		},
		func() string {
			if raw.Enrichment != nil {
				return raw.Enrichment.MerchantName
			}
			return ""
		},
		func() string { return raw.CreditorName },
		func() string { return raw.DebtorName },
		func() string { return raw.PayeeName },
		func() string { return raw.PayerName },
	}
	for _, step := range chain {
		if name := strings.TrimSpace(step()); name != "" {
			return name
		}
	}
	return deriveMerchant(working)
}

// deriveMerchant takes the first two tokens of length > 2 from the working
// description and title-cases them. No such tokens means "Unknown".
func deriveMerchant(description string) string {
	tokens := strings.FieldsFunc(description, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '*', '/', '\\', ',', ';', ':', '-', '_':
			return true
		}
		return false
	})

	var picked []string
	for _, tok := range tokens {
		if len(tok) > 2 {
			picked = append(picked, titleCase(tok))
			if len(picked) == 2 {
				break
			}
		}
	}
	if len(picked) == 0 {
		return defaultMerchant
	}
	return strings.Join(picked, " ")
}

func titleCase(s string) string {
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// resolveSuppliedCategory returns the source-assigned category, if any: the
// explicit categorisation name, the first of the candidate list, or the most
// specific non-generic level of the bank transaction code.
func resolveSuppliedCategory(raw core.RawTransaction) string {
	if raw.Categorisation != nil {
		if strings.TrimSpace(raw.Categorisation.Category) != "" {
			return raw.Categorisation.Category
		}
		if len(raw.Categorisation.Categories) > 0 && strings.TrimSpace(raw.Categorisation.Categories[0]) != "" {
			return raw.Categorisation.Categories[0]
		}
	}
	if code := raw.BankTransactionCode; code != nil {
		// Most specific first.
		for _, name := range []string{code.SubFamilyName, code.FamilyName, code.DomainName} {
			if strings.TrimSpace(name) != "" && !IsGenericCategory(name) {
				return name
			}
		}
	}
	return ""
}

// resolveDisplayDescription picks the most human-readable description text
// available, preferring unstructured remittance info over terse references.
func resolveDisplayDescription(raw core.RawTransaction, working string) string {
	if len(strings.TrimSpace(raw.RemittanceUnstructured)) > 2 {
		return raw.RemittanceUnstructured
	}
	if ref := strings.TrimSpace(raw.Reference); len(ref) > 2 && raw.Reference != working {
		return raw.Reference
	}
	if len(raw.TransactionInformation) > 0 {
		return strings.Join(raw.TransactionInformation, " ")
	}
	return working
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ResolveDate picks the best available timestamp: booking date, then value
// date, then the generic date field. Unparseable dates yield the zero time.
func ResolveDate(raw core.RawTransaction) time.Time {
	for _, candidate := range []string{raw.BookingDateTime, raw.ValueDateTime, raw.Date} {
		if candidate == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
