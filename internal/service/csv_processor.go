package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grachmannico95/payments-engine/internal/domain"
	"github.com/grachmannico95/payments-engine/pkg/amount"
	"github.com/grachmannico95/payments-engine/pkg/logger"
)

// TransactionApplier consumes parsed transactions in order.
// *ledger.Ledger implements it.
type TransactionApplier interface {
	Apply(ctx context.Context, tx domain.Transaction) error
}

type CSVProcessorInterface interface {
	ProcessStream(ctx context.Context, reader io.Reader, applier TransactionApplier) (Result, error)
}

type Result struct {
	Rows int
}

// LineError is a fatal problem with one input line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type CSVProcessor struct {
	logger *logger.Logger
}

func NewCSVProcessor(log *logger.Logger) *CSVProcessor {
	return &CSVProcessor{
		logger: log,
	}
}

// ProcessStream reads `type,client,tx,amount` records and hands each one to
// the applier before reading the next. A header row is optional. The first
// malformed record or read failure stops the stream; rejected transactions
// do not.
func (p *CSVProcessor) ProcessStream(ctx context.Context, reader io.Reader, applier TransactionApplier) (Result, error) {
	p.logger.Info(ctx, "Starting CSV processing")

	csvReader := csv.NewReader(reader)
	csvReader.ReuseRecord = true // Optimize memory usage
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	var result Result
	first := true

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				err = &LineError{Line: parseErr.Line, Err: fmt.Errorf("%w: %v", domain.ErrInvalidCSVFormat, parseErr.Err)}
			} else {
				err = fmt.Errorf("read input: %w", err)
			}
			p.logger.Error(ctx, "Failed to read CSV line",
				"rows", result.Rows,
				"error", err,
			)
			return result, err
		}

		lineNumber, _ := csvReader.FieldPos(0)

		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}

		tx, err := parseTransaction(record)
		if err != nil {
			err = &LineError{Line: lineNumber, Err: err}
			p.logger.Error(ctx, "Failed to parse transaction",
				"line", lineNumber,
				"error", err,
			)
			return result, err
		}

		if err := applier.Apply(ctx, tx); err != nil {
			return result, fmt.Errorf("apply line %d: %w", lineNumber, err)
		}

		result.Rows++
	}

	p.logger.Info(ctx, "CSV processing completed",
		"rows", result.Rows,
	)

	return result, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "type")
}

func parseTransaction(record []string) (domain.Transaction, error) {
	if len(record) != 3 && len(record) != 4 {
		return nil, fmt.Errorf("%w: expected 3 or 4 fields, got %d", domain.ErrInvalidCSVFormat, len(record))
	}

	kind := domain.TransactionKind(strings.ToLower(strings.TrimSpace(record[0])))

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid client id %q", domain.ErrInvalidCSVFormat, record[1])
	}

	txID, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tx id %q", domain.ErrInvalidCSVFormat, record[2])
	}

	// An empty fourth column is the same as no fourth column.
	amountText := ""
	if len(record) == 4 {
		amountText = strings.TrimSpace(record[3])
	}

	clientID := domain.ClientID(client)
	id := domain.TransactionID(txID)

	switch kind {
	case domain.KindDeposit, domain.KindWithdrawal:
		if amountText == "" {
			return nil, fmt.Errorf("%w: %s requires an amount", domain.ErrInvalidCSVFormat, kind)
		}
		value, err := amount.Parse(amountText)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCSVFormat, err)
		}
		if kind == domain.KindDeposit {
			return domain.Deposit{Client: clientID, Tx: id, Amount: value}, nil
		}
		return domain.Withdrawal{Client: clientID, Tx: id, Amount: value}, nil

	case domain.KindDispute, domain.KindResolve, domain.KindChargeback:
		if amountText != "" {
			return nil, fmt.Errorf("%w: %s must not carry an amount", domain.ErrInvalidCSVFormat, kind)
		}
		switch kind {
		case domain.KindDispute:
			return domain.Dispute{Client: clientID, Tx: id}, nil
		case domain.KindResolve:
			return domain.Resolve{Client: clientID, Tx: id}, nil
		default:
			return domain.Chargeback{Client: clientID, Tx: id}, nil
		}

	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", domain.ErrInvalidCSVFormat, record[0])
	}
}
