// Package dataset reads and writes transaction tables as CSV.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// required columns must be present in an imported header; the rest are
// derived when absent.
var required = []string{
	models.ColumnDate,
	models.ColumnRegion,
	models.ColumnChannel,
	models.ColumnProduct,
	models.ColumnCustomerID,
	models.ColumnQuantity,
	models.ColumnRevenue,
}

// WriteCSV writes rows with a header line in models.Columns order.
func WriteCSV(w io.Writer, rows []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range rows {
		record := []string{
			tx.ID,
			tx.Day(),
			tx.Region,
			tx.Channel,
			tx.Product,
			tx.CustomerID,
			strconv.Itoa(tx.Quantity),
			formatMoney(tx.UnitPrice),
			formatMoney(tx.Revenue),
			formatMoney(tx.Cost),
			formatMoney(tx.Profit),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows []models.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a table written by WriteCSV, matching columns by header name.
// A missing required column fails with MALFORMED_INPUT.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.MalformedInput("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, errors.MalformedInput("missing column %q", name)
		}
	}
	cr.FieldsPerRecord = len(header)

	var rows []models.Transaction
	for line := 2; ; line++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.MalformedInput("line %d: %v", line, err)
		}

		tx, err := parseTransaction(record, cols)
		if err != nil {
			return nil, errors.MalformedInput("line %d: %v", line, err)
		}
		if tx.ID == "" {
			tx.ID = fmt.Sprintf("TX-%06d", line-1)
		}
		rows = append(rows, tx)
	}
	return rows, nil
}

// ReadFile reads a CSV table from path.
func ReadFile(ctx context.Context, path string) ([]models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

func parseTransaction(record []string, cols map[string]int) (models.Transaction, error) {
	field := func(name string) string {
		if i, ok := cols[name]; ok {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	date, err := time.Parse(time.DateOnly, field(models.ColumnDate))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("column %q: %w", models.ColumnDate, err)
	}
	quantity, err := strconv.Atoi(field(models.ColumnQuantity))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("column %q: %w", models.ColumnQuantity, err)
	}
	if quantity < 1 {
		return models.Transaction{}, fmt.Errorf("column %q: must be positive, got %d", models.ColumnQuantity, quantity)
	}
	revenue, err := parseMoney(field(models.ColumnRevenue))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("column %q: %w", models.ColumnRevenue, err)
	}

	tx := models.Transaction{
		ID:         field(models.ColumnID),
		Date:       date,
		Region:     field(models.ColumnRegion),
		Channel:    field(models.ColumnChannel),
		Product:    field(models.ColumnProduct),
		CustomerID: field(models.ColumnCustomerID),
		Quantity:   quantity,
		Revenue:    revenue,
	}

	optional := []struct {
		name string
		dst  *float64
	}{
		{models.ColumnUnitPrice, &tx.UnitPrice},
		{models.ColumnCost, &tx.Cost},
		{models.ColumnProfit, &tx.Profit},
	}
	for _, o := range optional {
		raw := field(o.name)
		if raw == "" {
			continue
		}
		v, err := parseMoney(raw)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("column %q: %w", o.name, err)
		}
		*o.dst = v
	}

	if _, ok := cols[models.ColumnUnitPrice]; !ok {
		tx.UnitPrice = revenue / float64(quantity)
	}
	if _, ok := cols[models.ColumnProfit]; !ok {
		tx.Profit = tx.Revenue - tx.Cost
	}
	return tx, nil
}

func parseMoney(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("amount %q is not a finite number", s)
	}
	return v, nil
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
