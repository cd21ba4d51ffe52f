// Package ofx converts OFX/QFX bank and credit card statements into ledger entries.
package ofx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// ErrInvalidOwner is returned when entries would have no user or category.
var ErrInvalidOwner = errors.New("import requires a user and a category")

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags missing their closing bracket at end of line.
	unclosedTagPattern = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	leadingDatePattern = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

var vendorPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"ACH CREDIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
}

var genericNames = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"DEPOSIT":         true,
	"POS TRANSACTION": true,
}

// Parser reads OFX statements.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads every bank and credit card statement in reader and returns
// the entries as ledger transactions owned by userID and filed under
// categoryID. Debits become expenses and credits income; amounts are always
// positive. The statement's FITID becomes the external id so re-importing the
// same file is a no-op.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader, userID, categoryID int64) ([]model.Transaction, error) {
	if userID <= 0 || categoryID <= 0 {
		return nil, ErrInvalidOwner
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(normalize(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		slog.Debug("reading bank statement",
			"account", string(stmt.BankAcctFrom.AcctID),
			"entries", len(stmt.BankTranList.Transactions))
		transactions = p.appendEntries(ctx, transactions, stmt.BankTranList.Transactions, userID, categoryID)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		slog.Debug("reading credit card statement",
			"account", string(stmt.CCAcctFrom.AcctID),
			"entries", len(stmt.BankTranList.Transactions))
		transactions = p.appendEntries(ctx, transactions, stmt.BankTranList.Transactions, userID, categoryID)
	}

	slog.Info("parsed OFX file",
		"user_id", userID,
		"transactions", len(transactions))

	return transactions, nil
}

func (p *Parser) appendEntries(ctx context.Context, dst []model.Transaction, entries []ofxgo.Transaction, userID, categoryID int64) []model.Transaction {
	for _, entry := range entries {
		if ctx.Err() != nil {
			return dst
		}
		dst = append(dst, toLedger(entry, userID, categoryID))
	}
	return dst
}

func toLedger(entry ofxgo.Transaction, userID, categoryID int64) model.Transaction {
	amount, _ := entry.TrnAmt.Float64()

	txnType := model.TransactionTypeExpense
	switch {
	case entry.TrnType == ofxgo.TrnTypeXfer:
		txnType = model.TransactionTypeTransfer
	case amount > 0:
		txnType = model.TransactionTypeIncome
	}
	if amount < 0 {
		amount = -amount
	}

	return model.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Type:       txnType,
		Date:       entry.DtPosted.UTC(),
		Vendor:     vendorName(entry),
		Note:       strings.TrimSpace(string(entry.Memo)),
		ExternalID: strings.TrimSpace(string(entry.FiTID)),
	}
}

// normalize repairs formatting quirks some banks emit that ofxgo rejects.
func normalize(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagPattern.ReplaceAllString(content, "$1>")
}

// vendorName picks the most readable merchant name available on an entry.
func vendorName(entry ofxgo.Transaction) string {
	if entry.Payee != nil && entry.Payee.Name != "" {
		return strings.TrimSpace(string(entry.Payee.Name))
	}

	name := strings.TrimSpace(string(entry.Name))
	if entry.Memo != "" && genericNames[strings.ToUpper(name)] {
		name = strings.TrimSpace(string(entry.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(leadingDatePattern.ReplaceAllString(name, ""))
}
