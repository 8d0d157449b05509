// Package report renders account snapshots as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/grachmannico95/payments-engine/internal/domain"
)

var header = []string{"client", "available", "held", "total", "locked"}

// WriteCSV writes one row per account, in the order given.
func WriteCSV(w io.Writer, accounts []domain.AccountSnapshot) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for _, account := range accounts {
		row[0] = strconv.FormatUint(uint64(account.Client), 10)
		row[1] = account.Available.String()
		row[2] = account.Held.String()
		row[3] = account.Total.String()
		row[4] = strconv.FormatBool(account.Locked)

		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("write client %d: %w", account.Client, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
