package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/internal/ledger"
	"github.com/grachmannico95/payments-engine/internal/storage"
	"github.com/grachmannico95/payments-engine/pkg/amount"
	"github.com/grachmannico95/payments-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingApplier struct {
	txs []domain.Transaction
	err error
}

func (r *recordingApplier) Apply(ctx context.Context, tx domain.Transaction) error {
	if r.err != nil {
		return r.err
	}
	r.txs = append(r.txs, tx)
	return nil
}

func process(t *testing.T, input string) ([]domain.Transaction, Result, error) {
	t.Helper()
	applier := &recordingApplier{}
	result, err := NewCSVProcessor(logger.NewNop()).ProcessStream(context.Background(), strings.NewReader(input), applier)
	return applier.txs, result, err
}

func TestProcessStream_ParsesAllKinds(t *testing.T) {
	input := `type, client, tx, amount
deposit, 1, 1, 1.0
withdrawal, 1, 2, 0.5
dispute, 1, 1,
resolve, 1, 1
chargeback, 1, 1,
`

	txs, result, err := process(t, input)

	require.NoError(t, err)
	assert.Equal(t, 5, result.Rows)
	assert.Equal(t, []domain.Transaction{
		domain.Deposit{Client: 1, Tx: 1, Amount: amount.MustParse("1")},
		domain.Withdrawal{Client: 1, Tx: 2, Amount: amount.MustParse("0.5")},
		domain.Dispute{Client: 1, Tx: 1},
		domain.Resolve{Client: 1, Tx: 1},
		domain.Chargeback{Client: 1, Tx: 1},
	}, txs)
}

func TestProcessStream_HeaderIsOptional(t *testing.T) {
	txs, result, err := process(t, "deposit,7,70,3\n")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, []domain.Transaction{
		domain.Deposit{Client: 7, Tx: 70, Amount: amount.MustParse("3")},
	}, txs)
}

func TestProcessStream_CaseAndWhitespaceTolerance(t *testing.T) {
	txs, _, err := process(t, "TYPE,CLIENT,TX,AMOUNT\n  Deposit ,  2 , 5 ,  2.5000  \nDISPUTE,2,5,  \n")

	require.NoError(t, err)
	assert.Equal(t, []domain.Transaction{
		domain.Deposit{Client: 2, Tx: 5, Amount: amount.MustParse("2.5")},
		domain.Dispute{Client: 2, Tx: 5},
	}, txs)
}

func TestProcessStream_Empty(t *testing.T) {
	txs, result, err := process(t, "")

	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)
	assert.Empty(t, txs)
}

func TestProcessStream_StructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		rows  int
	}{
		{"unknown type", "type,client,tx,amount\ndeposit,1,1,1\ntransfer,1,2,1\n", 3, 1},
		{"missing amount", "deposit,1,1\n", 1, 0},
		{"empty amount", "withdrawal,1,1,\n", 1, 0},
		{"amount on dispute", "deposit,1,1,1\ndispute,1,1,1.0\n", 2, 1},
		{"amount on resolve", "resolve,1,1,0\n", 1, 0},
		{"amount on chargeback", "chargeback,1,1,2\n", 1, 0},
		{"bad amount", "deposit,1,1,abc\n", 1, 0},
		{"too many decimals", "deposit,1,1,1.23456\n", 1, 0},
		{"bad client", "deposit,x,1,1\n", 1, 0},
		{"client out of range", "deposit,70000,1,1\n", 1, 0},
		{"negative client", "deposit,-1,1,1\n", 1, 0},
		{"bad tx", "deposit,1,1.5,1\n", 1, 0},
		{"tx out of range", "deposit,1,4294967296,1\n", 1, 0},
		{"too few fields", "deposit,1\n", 1, 0},
		{"too many fields", "deposit,1,1,1,extra\n", 1, 0},
		{"bare quote", "deposit,1,1,1\"\n", 1, 0},
		{"exponent amount", "deposit,1,1,1e30000000\n", 1, 0},
		{"physical line after blank lines", "type,client,tx,amount\n\ndeposit,1,1,1\n\nbogus,1,2,1\n", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := process(t, tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidCSVFormat)

			var lineErr *LineError
			require.True(t, errors.As(err, &lineErr), "expected a LineError, got %T", err)
			assert.Equal(t, tt.line, lineErr.Line)
			assert.Equal(t, tt.rows, result.Rows, "rows applied before the failure")
		})
	}
}

func TestProcessStream_StopsAtFirstStructuralError(t *testing.T) {
	txs, _, err := process(t, "deposit,1,1,1\nbogus,1,2,1\ndeposit,1,3,1\n")

	require.Error(t, err)
	assert.Len(t, txs, 1, "nothing after the bad line may be applied")
}

func TestProcessStream_AmountFormatErrorIsWrapped(t *testing.T) {
	_, _, err := process(t, "deposit,1,1,1.23456\n")

	assert.ErrorIs(t, err, amount.ErrFormat)
	assert.Contains(t, err.Error(), "line 1")
}

type failingReader struct{}

var errReadFailed = errors.New("device not ready")

func (failingReader) Read([]byte) (int, error) {
	return 0, errReadFailed
}

func TestProcessStream_ReadError(t *testing.T) {
	_, err := NewCSVProcessor(logger.NewNop()).ProcessStream(context.Background(), failingReader{}, &recordingApplier{})

	assert.ErrorIs(t, err, errReadFailed)
}

func TestProcessStream_ApplierError(t *testing.T) {
	errBroken := errors.New("log broken")
	applier := &recordingApplier{err: errBroken}

	result, err := NewCSVProcessor(logger.NewNop()).ProcessStream(context.Background(), strings.NewReader("deposit,1,1,1\n"), applier)

	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, 0, result.Rows)
}

func TestProcessStream_IntoLedger(t *testing.T) {
	input := `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
dispute, 2, 2,
dispute, 1, 99,
chargeback, 2, 2,
deposit, 2, 6, 10.0
`
	l := ledger.New(storage.NewMemoryLog(), logger.NewNop())
	defer l.Close()

	result, err := NewCSVProcessor(logger.NewNop()).ProcessStream(context.Background(), strings.NewReader(input), l)
	require.NoError(t, err)
	assert.Equal(t, 9, result.Rows)

	snapshot := l.Snapshot()
	require.Len(t, snapshot, 2)

	assert.Equal(t, domain.AccountSnapshot{
		Client:    1,
		Available: amount.MustParse("1.5"),
		Held:      amount.Zero,
		Total:     amount.MustParse("1.5"),
		Locked:    false,
	}, snapshot[0])
	assert.Equal(t, domain.AccountSnapshot{
		Client:    2,
		Available: amount.Zero,
		Held:      amount.Zero,
		Total:     amount.Zero,
		Locked:    true,
	}, snapshot[1])
}
