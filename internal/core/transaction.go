package core

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RawTransaction is a bank transaction as delivered by an aggregator or the
// document store. Field names and shapes vary by source: amounts may be
// nested objects or flat values, dates appear under several names, and the
// counterparty can be spelled half a dozen ways. The enricher is responsible
// for resolving all of this; RawTransaction just carries whatever arrived.
type RawTransaction struct {
	ID                    string             `json:"transactionId,omitempty"`
	InternalID            string             `json:"internalTransactionId,omitempty"`
	TransactionAmount     *NestedAmount      `json:"transactionAmount,omitempty"`
	Amount                FlexAmount         `json:"amount,omitempty"`
	Currency              string             `json:"currency,omitempty"`
	Description           string             `json:"description,omitempty"`
	RemittanceUnstructured string            `json:"remittanceInformationUnstructured,omitempty"`
	Reference             string             `json:"reference,omitempty"`
	TransactionInformation []string          `json:"transactionInformation,omitempty"`
	Merchant              *RawMerchant       `json:"merchant,omitempty"`
	Enrichment            *RawEnrichment     `json:"enrichment,omitempty"`
	CreditorName          string             `json:"creditorName,omitempty"`
	DebtorName            string             `json:"debtorName,omitempty"`
	PayeeName             string             `json:"payee,omitempty"`
	PayerName             string             `json:"payer,omitempty"`
	Categorisation        *RawCategorisation `json:"categorisation,omitempty"`
	BankTransactionCode   *RawBankCode       `json:"bankTransactionCode,omitempty"`
	BookingDateTime       string             `json:"bookingDateTime,omitempty"`
	ValueDateTime         string             `json:"valueDateTime,omitempty"`
	Date                  string             `json:"date,omitempty"`
}

// Key returns the identifier used to memoize enrichment results. Records
// without any identifier return "" and are enriched without caching.
func (t RawTransaction) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.InternalID
}

// NestedAmount is the "transactionAmount"-style nested object. The amount
// itself may be a JSON number or a string such as "-12.50".
type NestedAmount struct {
	Amount   FlexDecimal `json:"amount"`
	Currency string      `json:"currency"`
}

// RawMerchant is a merchant block supplied by the source.
type RawMerchant struct {
	Name string `json:"name"`
}

// RawEnrichment carries a merchant name resolved upstream by the aggregator.
type RawEnrichment struct {
	MerchantName string `json:"merchantName"`
}

// RawCategorisation is a source-assigned category: either a single name or an
// ordered list of candidate names.
type RawCategorisation struct {
	Category   string   `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// RawBankCode is an ISO 20022 bank transaction code with hierarchical names,
// from most generic (domain) to most specific (sub-family).
type RawBankCode struct {
	DomainName    string `json:"domainName,omitempty"`
	FamilyName    string `json:"familyName,omitempty"`
	SubFamilyName string `json:"subFamilyName,omitempty"`
}

// FlexDecimal is a decimal that unmarshals from a JSON number or a quoted
// string. Sources disagree on which they send.
type FlexDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		f.Value = d
		f.Valid = true
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return nil
	}
	f.Value = d
	f.Valid = true
	return nil
}

func (f FlexDecimal) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(f.Value.String()), nil
}

// FlexAmount is a flat "amount" field that may be a scalar (number or string)
// or a nested {amount, currency} object.
type FlexAmount struct {
	Value    decimal.Decimal
	Currency string
	Valid    bool
}

func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var nested NestedAmount
		if err := json.Unmarshal(data, &nested); err != nil {
			return nil
		}
		if nested.Amount.Valid {
			f.Value = nested.Amount.Value
			f.Currency = nested.Currency
			f.Valid = true
		}
		return nil
	}
	var d FlexDecimal
	if err := d.UnmarshalJSON(data); err != nil {
		return nil
	}
	if d.Valid {
		f.Value = d.Value
		f.Valid = true
	}
	return nil
}

func (f FlexAmount) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	if f.Currency != "" {
		return json.Marshal(NestedAmount{
			Amount:   FlexDecimal{Value: f.Value, Valid: true},
			Currency: f.Currency,
		})
	}
	return []byte(f.Value.String()), nil
}
