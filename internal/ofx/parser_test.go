package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expense-tracker/internal/model"
)

const checkingStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240401090000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>021000021
<ACCTID>5550001111
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240301000000[0:GMT]
<DTEND>20240331000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305120000[0:GMT]
<TRNAMT>-42.18
<FITID>CHK0305A
<NAME>POS PURCHASE GREEN GROCER
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240315120000[0:GMT]
<TRNAMT>2100.00
<FITID>CHK0315P
<NAME>DEPOSIT
<MEMO>ACME PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>XFER
<DTPOSTED>20240320120000[0:GMT]
<TRNAMT>-300.00
<FITID>CHK0320X
<NAME>TRANSFER TO SAVINGS
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>2400.00
<DTASOF>20240331000000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const cardStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240401090000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4000123412341234
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240301000000[0:GMT]
<DTEND>20240331000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240308120000[0:GMT]
<TRNAMT>-12.99
<FITID>CC0308
<NAME>STREAMFLIX MONTHLY
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-12.99
<DTASOF>20240331000000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		count   int
		wantErr bool
	}{
		{name: "checking statement", data: checkingStatement, count: 3},
		{name: "credit card statement", data: cardStatement, count: 1},
		{name: "leading blank lines", data: "\n\n  " + cardStatement, count: 1},
		{name: "garbage", data: "this is not ofx", wantErr: true},
		{name: "empty", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := NewParser().ParseFile(context.Background(), strings.NewReader(tt.data), 1, 2)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, txns, tt.count)
		})
	}
}

func TestParseFile_Conversion(t *testing.T) {
	txns, err := NewParser().ParseFile(context.Background(), strings.NewReader(checkingStatement), 7, 9)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	grocery := txns[0]
	assert.Equal(t, int64(7), grocery.UserID)
	assert.Equal(t, int64(9), grocery.CategoryID)
	assert.Equal(t, model.TransactionTypeExpense, grocery.Type)
	assert.InDelta(t, 42.18, grocery.Amount, 0.0001)
	assert.Equal(t, "GREEN GROCER", grocery.Vendor)
	assert.Equal(t, "CHK0305A", grocery.ExternalID)
	assert.True(t, grocery.Date.Equal(time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)), grocery.Date)

	pay := txns[1]
	assert.Equal(t, model.TransactionTypeIncome, pay.Type)
	assert.InDelta(t, 2100, pay.Amount, 0.0001)
	assert.Equal(t, "ACME PAYROLL", pay.Vendor)
	assert.Equal(t, "ACME PAYROLL", pay.Note)

	xfer := txns[2]
	assert.Equal(t, model.TransactionTypeTransfer, xfer.Type)
	assert.InDelta(t, 300, xfer.Amount, 0.0001)
}

func TestParseFile_RequiresOwner(t *testing.T) {
	_, err := NewParser().ParseFile(context.Background(), strings.NewReader(cardStatement), 0, 2)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	_, err = NewParser().ParseFile(context.Background(), strings.NewReader(cardStatement), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestVendorName(t *testing.T) {
	tests := []struct {
		name  string
		entry ofxgo.Transaction
		want  string
	}{
		{
			name:  "strips card prefix",
			entry: ofxgo.Transaction{Name: "DEBIT CARD PURCHASE CITY BAKERY"},
			want:  "CITY BAKERY",
		},
		{
			name:  "strips leading date",
			entry: ofxgo.Transaction{Name: "03/14 HARDWARE DEPOT"},
			want:  "HARDWARE DEPOT",
		},
		{
			name:  "payee wins",
			entry: ofxgo.Transaction{Name: "POS 1234", Payee: &ofxgo.Payee{Name: "Corner Books"}},
			want:  "Corner Books",
		},
		{
			name:  "memo replaces generic name",
			entry: ofxgo.Transaction{Name: "PAYMENT", Memo: "CITY WATER"},
			want:  "CITY WATER",
		},
		{
			name:  "trims whitespace",
			entry: ofxgo.Transaction{Name: "  TRAIN FARE  "},
			want:  "TRAIN FARE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vendorName(tt.entry))
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "\n\n<SEVERITY>Warn</SEVERITY>\n<CODE\n"
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<CODE>\n", normalize(in))
}
