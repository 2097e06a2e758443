package amqp

import (
	"encoding/json"
	"time"
)

// Message types carried on the shared queue. Consumers dispatch on the
// envelope type field.
const (
	TypeBatchIngested = "batch_ingested"
	TypeReportExport  = "report_export"
)

// envelope is the minimal shape peeked at before full unmarshaling.
type envelope struct {
	Type string `json:"type"`
}

// BatchIngestedMessage signals that a batch of raw transactions has been
// persisted. Contains only the batch ID and record count, the worker will
// fetch the stored payloads from the database.
type BatchIngestedMessage struct {
	Type      string    `json:"type"`
	BatchID   string    `json:"batch_id"`
	TxCount   int       `json:"tx_count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBatchIngestedMessage creates a new batch notification
func NewBatchIngestedMessage(batchID string, txCount int) *BatchIngestedMessage {
	return &BatchIngestedMessage{
		Type:      TypeBatchIngested,
		BatchID:   batchID,
		TxCount:   txCount,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BatchIngestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BatchIngestedMessageFromJSON creates a message from JSON bytes
func BatchIngestedMessageFromJSON(data []byte) (*BatchIngestedMessage, error) {
	var msg BatchIngestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReportExportMessage asks the export worker to write an insights report for
// one calendar month to the configured report sink.
type ReportExportMessage struct {
	Type      string    `json:"type"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportExportMessage creates a new export request
func NewReportExportMessage(year, month int) *ReportExportMessage {
	return &ReportExportMessage{
		Type:      TypeReportExport,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON creates a message from JSON bytes
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
