package domain

import "time"

// Budget is a per-customer, per-period spending snapshot recalculated from
// the stored transactions. It is derived data: a recalculation overwrites the
// previous snapshot for the same (CustomerID, Period).
type Budget struct {
	CustomerID string `bson:"customerId" json:"customerId"`

	// Period is the calendar month, YYYY-MM.
	Period string `bson:"period" json:"period"`

	Categories []CategorySpend `bson:"categories" json:"categories"`

	// TotalIn is the sum of positive amounts, TotalOut the absolute sum of
	// negative amounts, both as two-fraction-digit display strings.
	TotalIn  string `bson:"totalIn" json:"totalIn"`
	TotalOut string `bson:"totalOut" json:"totalOut"`

	TransactionCount int `bson:"transactionCount" json:"transactionCount"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CategorySpend is the outflow attributed to one category within a period.
type CategorySpend struct {
	Category string `bson:"category" json:"category"`
	Spent    string `bson:"spent" json:"spent"`
	Count    int    `bson:"count" json:"count"`
}
