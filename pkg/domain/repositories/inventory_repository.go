package repositories

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// BalanceRepository provides access to the balance records consumed by FIFO matching.
// Records for a part are returned in priority order (date, then load order).
type BalanceRepository interface {
	LoadBalanceRecords(records []*entities.BalanceRecord) error
	GetBalanceRecords(partNumber entities.PartNumber) ([]*entities.BalanceRecord, error)
	GetAllBalanceRecords() ([]*entities.BalanceRecord, error)
	HasPart(partNumber entities.PartNumber) bool
	Decrement(recordID string, quantity decimal.Decimal) error
}
