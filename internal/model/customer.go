// Package model defines the core domain types for the kredit ledger.
package model

import "time"

// Customer represents a shop customer who may hold daily credits.
// Address, Phone and Notes are sensitive: the store keeps them in
// cleartext columns for querying and additionally sealed inside an
// encrypted blob.
type Customer struct {
	CreatedAt   time.Time
	Name        string
	Address     string
	Phone       string
	Notes       string
	ID          int64
	CreditLimit int64
}
