package models

import "time"

// Column names shared by the CSV codec and malformed-input errors.
const (
	ColumnID         = "transaction_id"
	ColumnDate       = "date"
	ColumnRegion     = "region"
	ColumnChannel    = "channel"
	ColumnProduct    = "product"
	ColumnCustomerID = "customer_id"
	ColumnQuantity   = "quantity"
	ColumnUnitPrice  = "unit_price"
	ColumnRevenue    = "revenue"
	ColumnCost       = "cost"
	ColumnProfit     = "profit"
)

// Columns lists every column in export order.
var Columns = []string{
	ColumnID,
	ColumnDate,
	ColumnRegion,
	ColumnChannel,
	ColumnProduct,
	ColumnCustomerID,
	ColumnQuantity,
	ColumnUnitPrice,
	ColumnRevenue,
	ColumnCost,
	ColumnProfit,
}

// Transaction is a single sale event.
type Transaction struct {
	ID         string    `json:"transaction_id"`
	Date       time.Time `json:"date"`
	Region     string    `json:"region"`
	Channel    string    `json:"channel"`
	Product    string    `json:"product"`
	CustomerID string    `json:"customer_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	Revenue    float64   `json:"revenue"`
	Cost       float64   `json:"cost"`
	Profit     float64   `json:"profit"`
}

// Month returns the UTC calendar month bucket of the transaction, e.g. "2024-03".
func (t Transaction) Month() string {
	return t.Date.UTC().Format("2006-01")
}

// Day returns the UTC calendar day of the transaction.
func (t Transaction) Day() string {
	return t.Date.UTC().Format("2006-01-02")
}
