// Package insights implements the transaction enrichment and financial
// insights engine: category inference, per-record enrichment, spending
// aggregation, recurring-expense detection and time-window summaries.
//
// Everything in this package is a pure in-memory transformation over
// caller-supplied transaction slices. Nothing here performs I/O.
package insights

import (
	"strings"

	"insight/internal/core"

	"github.com/shopspring/decimal"
)

// Category display constants shared by the rule tables and the mapper.
var (
	infoIncome        = core.CategoryInfo{Category: "Income", Icon: "💰", Color: "#4CAF50"}
	infoTransferIn    = core.CategoryInfo{Category: "Transfer In", Icon: "🔄", Color: "#2196F3"}
	infoRefund        = core.CategoryInfo{Category: "Refund", Icon: "↩️", Color: "#8BC34A"}
	infoInterest      = core.CategoryInfo{Category: "Interest", Icon: "📈", Color: "#009688"}
	infoGroceries     = core.CategoryInfo{Category: "Groceries", Icon: "🛒", Color: "#FF9800"}
	infoDining        = core.CategoryInfo{Category: "Dining", Icon: "🍽️", Color: "#F44336"}
	infoShopping      = core.CategoryInfo{Category: "Shopping", Icon: "🛍️", Color: "#E91E63"}
	infoSubscriptions = core.CategoryInfo{Category: "Subscriptions", Icon: "📺", Color: "#9C27B0"}
	infoTransport     = core.CategoryInfo{Category: "Transport", Icon: "🚗", Color: "#3F51B5"}
	infoHousing       = core.CategoryInfo{Category: "Housing", Icon: "🏠", Color: "#795548"}
	infoUtilities     = core.CategoryInfo{Category: "Utilities", Icon: "💡", Color: "#607D8B"}
	infoHealth        = core.CategoryInfo{Category: "Health", Icon: "💊", Color: "#00BCD4"}
	infoEntertainment = core.CategoryInfo{Category: "Entertainment", Icon: "🎬", Color: "#FF5722"}
	infoCash          = core.CategoryInfo{Category: "Cash", Icon: "🏧", Color: "#9E9E9E"}
	infoTransferOut   = core.CategoryInfo{Category: "Transfer Out", Icon: "💸", Color: "#2196F3"}
	infoInsurance     = core.CategoryInfo{Category: "Insurance", Icon: "🛡️", Color: "#673AB7"}
	infoBusiness      = core.CategoryInfo{Category: "Business", Icon: "💼", Color: "#455A64"}
	infoOther         = core.CategoryInfo{Category: "Other", Icon: "📦", Color: "#9E9E9E"}
)

// categoryRule is one entry of an ordered first-match-wins cascade.
type categoryRule struct {
	keywords []string
	info     core.CategoryInfo
}

func (r categoryRule) matches(text string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// creditRules classify credits (amount >= 0). Order is significant:
// rules are evaluated top to bottom and the first match wins. Credits are
// never classified as expense categories.
var creditRules = []categoryRule{
	{keywords: []string{"salary", "payroll", "wages", "income"}, info: infoIncome},
	{keywords: []string{"transfer", "sent from"}, info: infoTransferIn},
	{keywords: []string{"refund", "return"}, info: infoRefund},
	{keywords: []string{"interest", "dividend"}, info: infoInterest},
}

// debitRules classify debits (amount < 0), again top to bottom with first
// match winning. The ordering encodes precedence between overlapping keyword
// groups (e.g. "uber eats" is dining, plain "uber" is transport).
var debitRules = []categoryRule{
	{keywords: []string{
		"grocery", "groceries", "supermarket", "tesco", "sainsbury", "asda",
		"aldi", "lidl", "waitrose", "morrisons", "co-op", "coop", "spar",
	}, info: infoGroceries},
	{keywords: []string{
		"restaurant", "cafe", "coffee", "pizza", "burger", "kebab", "takeaway",
		"deliveroo", "uber eats", "just eat", "mcdonald", "starbucks", "pret",
		"nando", "pub ", "bistro",
	}, info: infoDining},
	{keywords: []string{
		"amazon", "ebay", "etsy", "asos", "zara", "h&m", "ikea", "argos",
		"shopping", "retail", "store", "clothing",
	}, info: infoShopping},
	{keywords: []string{
		"netflix", "spotify", "disney", "youtube premium", "apple.com",
		"audible", "subscription", "membership", "prime",
	}, info: infoSubscriptions},
	{keywords: []string{
		"uber", "taxi", "bolt", "train", "rail", "bus ", "tfl", "transport",
		"fuel", "petrol", "shell", "esso", "parking", "toll",
	}, info: infoTransport},
	{keywords: []string{
		"rent", "mortgage", "landlord", "letting", "housing",
	}, info: infoHousing},
	{keywords: []string{
		"electric", "energy", "gas bill", "water", "broadband", "internet",
		"vodafone", "o2", "ee ", "three", "council tax", "utility",
	}, info: infoUtilities},
	{keywords: []string{
		"pharmacy", "boots", "doctor", "dental", "hospital", "clinic", "gym",
		"fitness", "health",
	}, info: infoHealth},
	{keywords: []string{
		"cinema", "theatre", "concert", "ticket", "steam", "playstation",
		"xbox", "nintendo", "entertainment",
	}, info: infoEntertainment},
	{keywords: []string{
		"atm", "cash withdrawal", "cashpoint", "cash",
	}, info: infoCash},
	{keywords: []string{
		"transfer", "sent to", "standing order", "faster payment",
	}, info: infoTransferOut},
	{keywords: []string{
		"insurance", "insurer", "premium", "aviva", "axa",
	}, info: infoInsurance},
	{keywords: []string{
		"invoice", "consulting", "hosting", "software", "office", "payroll out",
	}, info: infoBusiness},
}

// InferCategory derives a category from the free text of a transaction. It
// is pure and total: any input yields exactly one CategoryInfo.
//
// Credits run through the credit cascade and default to Income; debits run
// through the debit cascade and default to Other.
func InferCategory(description, merchant string, amount decimal.Decimal) core.CategoryInfo {
	text := strings.ToLower(description + " " + merchant)

	if !amount.IsNegative() {
		for _, r := range creditRules {
			if r.matches(text) {
				return r.info
			}
		}
		return infoIncome
	}

	for _, r := range debitRules {
		if r.matches(text) {
			return r.info
		}
	}
	return infoOther
}
