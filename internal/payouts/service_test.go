package payouts

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	"github.com/stuvendor/stuvendor-backend/pkg/db"
	"github.com/stuvendor/stuvendor-backend/pkg/db/models"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	"gorm.io/gorm"
)

type memLedger struct {
	entries []models.LedgerEntry
}

func (m *memLedger) WithTx(tx *gorm.DB) ledger.Repository { return m }

func (m *memLedger) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memLedger) CreateAll(ctx context.Context, entries []models.LedgerEntry) error {
	for i := range entries {
		if err := m.Create(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memLedger) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			entry := m.entries[i]
			return &entry, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memLedger) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.OrderID != nil && *e.OrderID == orderID && e.Type == enums.LedgerEntryTypeOrderSplit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) ListByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.VendorID == vendorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLedger) SumAmount(ctx context.Context, vendorID uuid.UUID, entryType enums.LedgerEntryType, statuses []enums.LedgerEntryStatus) (int64, error) {
	var total int64
	for _, e := range m.entries {
		if e.VendorID != vendorID || e.Type != entryType {
			continue
		}
		for _, status := range statuses {
			if e.Status == status {
				total += e.AmountCents
				break
			}
		}
	}
	return total, nil
}

func (m *memLedger) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.LedgerEntryStatus, providerTransferID *string) error {
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].Status == from {
			m.entries[i].Status = to
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newSplitService(t *testing.T, repo ledger.Repository) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{DB: &db.Client{}, Ledger: repo})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func line(vendorID uuid.UUID, unitPrice string, quantity int) models.OrderLine {
	return models.OrderLine{
		ID:        uuid.New(),
		VendorID:  vendorID,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Quantity:  quantity,
	}
}

func TestSplitOrderProportionalShares(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		TotalCents: 10000,
		Lines: []models.OrderLine{
			line(vendorA, "30.00", 2), // 60.00
			line(vendorB, "20.00", 2), // 40.00
		},
	}

	repo := &memLedger{}
	svc := newSplitService(t, repo)
	if err := svc.SplitOrderTx(context.Background(), nil, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byVendor := map[uuid.UUID]int64{}
	for _, e := range repo.entries {
		if e.Type != enums.LedgerEntryTypeOrderSplit {
			t.Fatalf("unexpected entry type %s", e.Type)
		}
		if e.Status != enums.LedgerEntryStatusCompleted {
			t.Fatalf("split entries must be completed, got %s", e.Status)
		}
		if e.OrderID == nil || *e.OrderID != order.ID {
			t.Fatal("split entry must reference the order")
		}
		byVendor[e.VendorID] = e.AmountCents
	}
	if byVendor[vendorA] != 6000 {
		t.Fatalf("expected vendor A share 6000, got %d", byVendor[vendorA])
	}
	if byVendor[vendorB] != 4000 {
		t.Fatalf("expected vendor B share 4000, got %d", byVendor[vendorB])
	}
}

func TestSplitOrderRemainderGoesToLargestShare(t *testing.T) {
	vendorBig := uuid.New()
	vendorSmall := uuid.New()
	// Subtotals 0.70 and 0.31 against a 100-cent total floor to 69 and 30,
	// leaving one cent to assign.
	order := &models.Order{
		ID:         uuid.New(),
		TotalCents: 100,
		Lines: []models.OrderLine{
			line(vendorBig, "0.70", 1),
			line(vendorSmall, "0.31", 1),
		},
	}

	repo := &memLedger{}
	svc := newSplitService(t, repo)
	if err := svc.SplitOrderTx(context.Background(), nil, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum int64
	byVendor := map[uuid.UUID]int64{}
	for _, e := range repo.entries {
		sum += e.AmountCents
		byVendor[e.VendorID] = e.AmountCents
	}
	if sum != order.TotalCents {
		t.Fatalf("shares must sum to the order total, got %d", sum)
	}
	if byVendor[vendorBig] != 70 {
		t.Fatalf("expected the largest share to absorb the remainder cent, got %d", byVendor[vendorBig])
	}
	if byVendor[vendorSmall] != 30 {
		t.Fatalf("expected small share 30, got %d", byVendor[vendorSmall])
	}
}

func TestSplitOrderRemainderTieBreaksByLowestVendorID(t *testing.T) {
	vendors := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	order := &models.Order{
		ID:         uuid.New(),
		TotalCents: 100,
		Lines: []models.OrderLine{
			line(vendors[0], "1.00", 1),
			line(vendors[1], "1.00", 1),
			line(vendors[2], "1.00", 1),
		},
	}

	repo := &memLedger{}
	svc := newSplitService(t, repo)
	if err := svc.SplitOrderTx(context.Background(), nil, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := make([]string, len(vendors))
	for i, v := range vendors {
		ids[i] = v.String()
	}
	sort.Strings(ids)
	lowest := ids[0]

	var sum int64
	for _, e := range repo.entries {
		sum += e.AmountCents
		want := int64(33)
		if e.VendorID.String() == lowest {
			want = 34
		}
		if e.AmountCents != want {
			t.Fatalf("vendor %s expected %d cents, got %d", e.VendorID, want, e.AmountCents)
		}
	}
	if sum != 100 {
		t.Fatalf("shares must sum to 100, got %d", sum)
	}
}

func TestSplitOrderIdempotentPerOrder(t *testing.T) {
	vendorA := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		TotalCents: 5000,
		Lines:      []models.OrderLine{line(vendorA, "50.00", 1)},
	}

	repo := &memLedger{}
	svc := newSplitService(t, repo)
	for i := 0; i < 2; i++ {
		if err := svc.SplitOrderTx(context.Background(), nil, order); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected a single split entry after replay, got %d", len(repo.entries))
	}

	balance, err := repo.SumAmount(context.Background(), vendorA,
		enums.LedgerEntryTypeOrderSplit, []enums.LedgerEntryStatus{enums.LedgerEntryStatusCompleted})
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if balance != 5000 {
		t.Fatalf("replay must not change the credited amount, got %d", balance)
	}
}

func TestSplitOrderSkipsEmptyAndInvalidLines(t *testing.T) {
	order := &models.Order{
		ID:         uuid.New(),
		TotalCents: 1000,
		Lines: []models.OrderLine{
			line(uuid.Nil, "10.00", 1),
			line(uuid.New(), "10.00", 0),
		},
	}

	repo := &memLedger{}
	svc := newSplitService(t, repo)
	if err := svc.SplitOrderTx(context.Background(), nil, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no entries for unattributable lines, got %d", len(repo.entries))
	}
}
