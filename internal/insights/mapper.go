package insights

import (
	"strings"

	"insight/internal/core"

	"github.com/shopspring/decimal"
)

// genericCategories are bank-supplied classifications too vague to display.
// A supplied category on this list is discarded and the keyword cascade runs
// instead. Matching is case-insensitive on the trimmed name.
var genericCategories = []string{
	"payments",
	"payment",
	"card payments",
	"card payment",
	"other",
	"transfer",
	"transfers",
	"fee",
	"fees",
	"unknown",
	"miscellaneous",
	"general",
	"debit",
	"credit",
	"purchase",
	"pos",
	"card",
	"direct debit",
	"standing order",
	"bank fee",
	"charge",
	"charges",
	"cash",
	"atm",
	"withdrawal",
	"deposit",
	"issued credit transfers",
	"received credit transfers",
	"issued direct debits",
	"not categorized",
	"uncategorized",
	"n/a",
	"none",
}

// IsGenericCategory reports whether a source-assigned category name is on
// the generic denylist (and therefore unusable for display).
func IsGenericCategory(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return true
	}
	for _, g := range genericCategories {
		if name == g {
			return true
		}
	}
	return false
}

// mapperBuckets pair keyword groups with display info for matching an
// externally supplied category *name* (not transaction text). They reuse the
// same semantic buckets as the debit cascade.
var mapperBuckets = []categoryRule{
	{keywords: []string{"grocer", "supermarket", "food"}, info: infoGroceries},
	{keywords: []string{"dining", "restaurant", "eating", "cafe", "takeaway"}, info: infoDining},
	{keywords: []string{"shopping", "retail", "merchandise"}, info: infoShopping},
	{keywords: []string{"subscription", "streaming", "digital service"}, info: infoSubscriptions},
	{keywords: []string{"transport", "travel", "fuel", "automotive", "commut"}, info: infoTransport},
	{keywords: []string{"housing", "rent", "mortgage", "accommodation"}, info: infoHousing},
	{keywords: []string{"utilit", "energy", "telecom", "internet"}, info: infoUtilities},
	{keywords: []string{"health", "medical", "pharma", "wellness"}, info: infoHealth},
	{keywords: []string{"entertainment", "leisure", "recreation"}, info: infoEntertainment},
	{keywords: []string{"cash", "atm"}, info: infoCash},
	{keywords: []string{"transfer"}, info: infoTransferOut},
	{keywords: []string{"insurance"}, info: infoInsurance},
	{keywords: []string{"business", "professional"}, info: infoBusiness},
}

// MapCategory adapts a usable source-assigned category name onto display
// info. The supplied name is kept verbatim as the category; only the icon and
// color are derived, by keyword-matching the name against the semantic
// buckets. Credits, and any name mentioning income or salary, always get the
// Income icon and color.
func MapCategory(name string, amount decimal.Decimal) core.CategoryInfo {
	lower := strings.ToLower(name)

	if !amount.IsNegative() || strings.Contains(lower, "income") || strings.Contains(lower, "salary") {
		return core.CategoryInfo{Category: name, Icon: infoIncome.Icon, Color: infoIncome.Color}
	}

	for _, b := range mapperBuckets {
		if b.matches(lower) {
			return core.CategoryInfo{Category: name, Icon: b.info.Icon, Color: b.info.Color}
		}
	}
	return core.CategoryInfo{Category: name, Icon: infoOther.Icon, Color: infoOther.Color}
}
