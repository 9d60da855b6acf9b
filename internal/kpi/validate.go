package kpi

import (
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// Validate fails with MALFORMED_INPUT on the first row that lacks a column
// the KPIs group by.
func Validate(rows []models.Transaction) error {
	for i, tx := range rows {
		if column := missingColumn(tx); column != "" {
			return errors.MalformedInput("row %d (%s): missing column %q", i+1, tx.ID, column)
		}
	}
	return nil
}

func missingColumn(tx models.Transaction) string {
	switch {
	case tx.Date.IsZero():
		return models.ColumnDate
	case tx.Region == "":
		return models.ColumnRegion
	case tx.Channel == "":
		return models.ColumnChannel
	case tx.Product == "":
		return models.ColumnProduct
	case tx.CustomerID == "":
		return models.ColumnCustomerID
	}
	return ""
}
