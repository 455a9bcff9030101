// Package events publishes ledger events after a change has been committed.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmynk/grouptab/internal/models"
)

// Event types.
const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeDebtSettled         = "debt.settled"
)

// Publisher delivers events to downstream consumers. Publishing happens after
// commit, so a failure never rolls back the change it describes.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Event is a lightweight notification; consumers fetch full records by ID.
type Event struct {
	Type          string    `json:"type"`
	GroupID       string    `json:"group_id"`
	TransactionID string    `json:"transaction_id"`
	PayerID       string    `json:"payer_id"`
	Amount        float64   `json:"amount"`
	DebtUpserts   int       `json:"debt_upserts"`
	DebtDeletes   int       `json:"debt_deletes"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionRecorded describes an expense and the debt batch it produced.
func NewTransactionRecorded(txn *models.Transaction, changes models.DebtChanges) *Event {
	return &Event{
		Type:          TypeTransactionRecorded,
		GroupID:       txn.GroupID,
		TransactionID: txn.ID,
		PayerID:       txn.PayerID,
		Amount:        txn.TotalAmount,
		DebtUpserts:   len(changes.Upserts),
		DebtDeletes:   len(changes.Deletes),
		Timestamp:     time.Now(),
	}
}

// NewDebtSettled describes a settlement transaction.
func NewDebtSettled(txn *models.Transaction) *Event {
	return &Event{
		Type:          TypeDebtSettled,
		GroupID:       txn.GroupID,
		TransactionID: txn.ID,
		PayerID:       txn.PayerID,
		Amount:        txn.TotalAmount,
		DebtDeletes:   1,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NopPublisher drops every event. It is used when AMQP is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }

func (NopPublisher) Close() error { return nil }
