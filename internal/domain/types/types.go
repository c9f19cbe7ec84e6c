// Package types contains the JSON shapes returned by the service.
package types

// Entry is one ranked row of an LTV report.
type Entry struct {
	Rank          int     `json:"rank"`
	CustomerID    string  `json:"customer_id"`
	LTV           string  `json:"ltv"`
	Visits        int     `json:"visits"`
	Orders        int     `json:"orders"`
	Weeks         int64   `json:"weeks"`
	TotalSpent    string  `json:"total_spent"`
	AvgPerVisit   string  `json:"avg_per_visit"`
	VisitsPerWeek float64 `json:"visits_per_week"`
}

// Report is the response of an LTV report request.
type Report struct {
	TransactionID string  `json:"transaction_id"`
	Limit         int     `json:"limit"`
	Events        int     `json:"events"`
	Rejected      int     `json:"rejected"`
	Customers     []Entry `json:"customers"`
}

// Rejection describes a dropped payload item.
type Rejection struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// Stats summarizes service activity since start.
type Stats struct {
	UptimeSeconds   float64  `json:"uptime_seconds"`
	Payloads        int64    `json:"payloads"`
	EventsIngested  int64    `json:"events_ingested"`
	ItemsRejected   int64    `json:"items_rejected"`
	Reports         int64    `json:"reports"`
	RegisteredTypes []string `json:"registered_types"`
}
