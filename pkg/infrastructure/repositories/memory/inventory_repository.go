package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/repositories"
)

// BalanceRepository provides in-memory storage of balance records indexed by part number.
// Records are owned by the repository; callers mutate them only through Decrement.
type BalanceRepository struct {
	mu      sync.RWMutex
	records []*entities.BalanceRecord
	byPart  map[entities.PartNumber][]*entities.BalanceRecord
	byID    map[string]*entities.BalanceRecord
	sorted  bool
}

// NewBalanceRepository creates a new in-memory balance repository
func NewBalanceRepository(expectedRecords int) *BalanceRepository {
	return &BalanceRepository{
		records: make([]*entities.BalanceRecord, 0, expectedRecords),
		byPart:  make(map[entities.PartNumber][]*entities.BalanceRecord),
		byID:    make(map[string]*entities.BalanceRecord, expectedRecords),
	}
}

// Verify interface compliance
var _ repositories.BalanceRepository = (*BalanceRepository)(nil)

// LoadBalanceRecords copies records into the repository. Record ids must be unique.
func (r *BalanceRepository) LoadBalanceRecords(records []*entities.BalanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		if _, exists := r.byID[record.ID]; exists {
			return fmt.Errorf("duplicate balance record id: %s", record.ID)
		}
		owned := *record
		owned.Payload = copyPayload(record.Payload)
		r.records = append(r.records, &owned)
		r.byPart[owned.PartNumber] = append(r.byPart[owned.PartNumber], &owned)
		r.byID[owned.ID] = &owned
	}
	r.sorted = false
	return nil
}

// GetBalanceRecords returns the records of a part in priority order:
// earliest priority date first, absent dates last, load order breaking ties.
func (r *BalanceRepository) GetBalanceRecords(partNumber entities.PartNumber) ([]*entities.BalanceRecord, error) {
	r.ensureSorted()

	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.byPart[partNumber]
	out := make([]*entities.BalanceRecord, len(records))
	copy(out, records)
	return out, nil
}

// GetAllBalanceRecords returns every record in load order
func (r *BalanceRepository) GetAllBalanceRecords() ([]*entities.BalanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.BalanceRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

// HasPart reports whether any record exists for the part, regardless of remaining quantity
func (r *BalanceRepository) HasPart(partNumber entities.PartNumber) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byPart[partNumber]) > 0
}

// Decrement consumes quantity from one record in place
func (r *BalanceRepository) Decrement(recordID string, quantity decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[recordID]
	if !ok {
		return fmt.Errorf("balance record not found: %s", recordID)
	}
	return record.Consume(quantity)
}

// Snapshot returns value copies of every record in load order
func (r *BalanceRepository) Snapshot() []entities.BalanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.BalanceRecord, len(r.records))
	for i, record := range r.records {
		out[i] = *record
		out[i].Payload = copyPayload(record.Payload)
	}
	return out
}

// Size returns the number of records held
func (r *BalanceRepository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}

func (r *BalanceRepository) ensureSorted() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sorted {
		return
	}
	for _, records := range r.byPart {
		sort.SliceStable(records, func(i, j int) bool {
			if c := entities.CompareDates(records[i].PriorityDate, records[j].PriorityDate); c != 0 {
				return c < 0
			}
			return records[i].Seq < records[j].Seq
		})
	}
	r.sorted = true
}

func copyPayload(payload map[string]string) map[string]string {
	if payload == nil {
		return nil
	}
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
