package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType distinguishes money leaving from money entering an account.
type TransactionType string

const (
	// TransactionTypeExpense marks money spent.
	TransactionTypeExpense TransactionType = "expense"
	// TransactionTypeIncome marks money received.
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeTransfer marks movement between the user's own accounts.
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is a single ledger entry. Entries are owned by the transaction
// CRUD surface; the goal engine only ever reads them.
type Transaction struct {
	Date        time.Time
	RecurringID *int64
	Note        string
	Vendor      string
	ExternalID  string // Identifier from the import source (e.g. OFX FITID)
	Type        TransactionType
	ID          int64
	UserID      int64
	CategoryID  int64
	Amount      float64
}

// GenerateExternalID creates a stable identifier for entries that arrive without one.
func (t *Transaction) GenerateExternalID() string {
	data := fmt.Sprintf("%d:%s:%.2f:%s:%d",
		t.UserID,
		t.Date.UTC().Format("2006-01-02"),
		t.Amount,
		t.Vendor,
		t.CategoryID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// SpendQuery selects the ledger entries summed by the Ledger.
// The window is [Start, End] unless ExcludeEnd is set, which makes it [Start, End).
type SpendQuery struct {
	Start      time.Time
	End        time.Time
	CategoryID *int64
	UserID     int64
	ExcludeEnd bool
}
