package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional: el runner serializa las
// transacciones con un mutex y revierte con snapshot/restore si fn falla.
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memStore struct {
	mu           sync.Mutex
	stocks       map[string]*entity.StockRecord
	movements    []*entity.Movement
	transactions map[string]*entity.Transaction
	lines        []*entity.TransactionLine
	reservations map[string]*entity.Reservation
	products     map[string]*entity.Product
	warehouses   map[string]*entity.Warehouse
}

func newMemStore() *memStore {
	return &memStore{
		stocks:       make(map[string]*entity.StockRecord),
		transactions: make(map[string]*entity.Transaction),
		reservations: make(map[string]*entity.Reservation),
		products:     make(map[string]*entity.Product),
		warehouses:   make(map[string]*entity.Warehouse),
	}
}

func stockKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

type storeSnapshot struct {
	stocks       map[string]*entity.StockRecord
	movements    []*entity.Movement
	transactions map[string]*entity.Transaction
	lines        []*entity.TransactionLine
	reservations map[string]*entity.Reservation
}

func (s *memStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		stocks:       make(map[string]*entity.StockRecord, len(s.stocks)),
		movements:    make([]*entity.Movement, len(s.movements)),
		transactions: make(map[string]*entity.Transaction, len(s.transactions)),
		lines:        make([]*entity.TransactionLine, len(s.lines)),
		reservations: make(map[string]*entity.Reservation, len(s.reservations)),
	}
	for k, v := range s.stocks {
		cp := *v
		snap.stocks[k] = &cp
	}
	copy(snap.movements, s.movements)
	for k, v := range s.transactions {
		cp := *v
		snap.transactions[k] = &cp
	}
	copy(snap.lines, s.lines)
	for k, v := range s.reservations {
		cp := *v
		snap.reservations[k] = &cp
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.stocks = snap.stocks
	s.movements = snap.movements
	s.transactions = snap.transactions
	s.lines = snap.lines
	s.reservations = snap.reservations
}

// lockGuard devuelve el unlock a diferir; los repos atados a una tx no
// bloquean porque el runner ya sostiene el mutex.
func lockGuard(s *memStore, lock bool) func() {
	if !lock {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios fake
// ──────────────────────────────────────────────────────────────────────────────

var _ repository.StockRecordRepository = (*memStockRepo)(nil)

type memStockRepo struct {
	s    *memStore
	lock bool
}

func (r *memStockRepo) Get(productID, warehouseID string) (*entity.StockRecord, error) {
	defer lockGuard(r.s, r.lock)()
	rec, ok := r.s.stocks[stockKey(productID, warehouseID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memStockRepo) GetForUpdate(productID, warehouseID string) (*entity.StockRecord, error) {
	return r.Get(productID, warehouseID)
}

func (r *memStockRepo) Create(record *entity.StockRecord) error {
	defer lockGuard(r.s, r.lock)()
	key := stockKey(record.ProductID, record.WarehouseID)
	if _, ok := r.s.stocks[key]; ok {
		return domain.ErrConcurrentModification
	}
	record.Version = 1
	cp := *record
	r.s.stocks[key] = &cp
	return nil
}

func (r *memStockRepo) UpdateWithVersion(record *entity.StockRecord) error {
	defer lockGuard(r.s, r.lock)()
	key := stockKey(record.ProductID, record.WarehouseID)
	stored, ok := r.s.stocks[key]
	if !ok || stored.Version != record.Version {
		return domain.ErrConcurrentModification
	}
	record.Version++
	cp := *record
	r.s.stocks[key] = &cp
	return nil
}

func (r *memStockRepo) ListCandidates(productID string, lock bool) ([]repository.AllocationCandidate, error) {
	defer lockGuard(r.s, r.lock)()
	var list []repository.AllocationCandidate
	for _, rec := range r.s.stocks {
		if rec.ProductID != productID {
			continue
		}
		wh, ok := r.s.warehouses[rec.WarehouseID]
		if !ok || !wh.Active {
			continue
		}
		list = append(list, repository.AllocationCandidate{
			ProductID:   rec.ProductID,
			WarehouseID: rec.WarehouseID,
			Available:   rec.Available(),
			Priority:    wh.Priority,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Available.Equal(list[j].Available) {
			return list[i].Available.GreaterThan(list[j].Available)
		}
		return list[i].Priority < list[j].Priority
	})
	return list, nil
}

func (r *memStockRepo) ListByProduct(productID string) ([]*entity.StockRecord, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.StockRecord
	for _, rec := range r.s.stocks {
		if rec.ProductID == productID {
			cp := *rec
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].WarehouseID < list[j].WarehouseID })
	return list, nil
}

func (r *memStockRepo) List(limit, offset int) ([]*entity.StockRecord, error) {
	defer lockGuard(r.s, r.lock)()
	keys := make([]string, 0, len(r.s.stocks))
	for k := range r.s.stocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var list []*entity.StockRecord
	for i := offset; i < len(keys) && len(list) < limit; i++ {
		cp := *r.s.stocks[keys[i]]
		list = append(list, &cp)
	}
	return list, nil
}

func (r *memStockRepo) ListUpdatedSince(ctx context.Context, since time.Time) ([]repository.StockUpdate, error) {
	defer lockGuard(r.s, r.lock)()
	agg := make(map[string]*repository.StockUpdate)
	for _, rec := range r.s.stocks {
		if !rec.UpdatedAt.After(since) {
			continue
		}
		u, ok := agg[rec.ProductID]
		if !ok {
			u = &repository.StockUpdate{ProductID: rec.ProductID}
			agg[rec.ProductID] = u
		}
		u.NewStock = u.NewStock.Add(rec.CurrentStock)
		if rec.UpdatedAt.After(u.LastUpdated) {
			u.LastUpdated = rec.UpdatedAt
		}
	}
	var list []repository.StockUpdate
	for _, u := range agg {
		list = append(list, *u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LastUpdated.Before(list[j].LastUpdated) })
	return list, nil
}

var _ repository.MovementRepository = (*memMovementRepo)(nil)

type memMovementRepo struct {
	s    *memStore
	lock bool
}

func (r *memMovementRepo) Create(movement *entity.Movement) error {
	defer lockGuard(r.s, r.lock)()
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	cp := *movement
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovementRepo) GetByID(id string) (*entity.Movement, error) {
	defer lockGuard(r.s, r.lock)()
	for _, m := range r.s.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) ListByProductWarehouse(productID, warehouseID string) ([]*entity.Movement, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.Movement
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			cp := *m
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *memMovementRepo) ListByReference(referenceType, referenceID string) ([]*entity.Movement, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.Movement
	for _, m := range r.s.movements {
		if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			cp := *m
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *memMovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.Movement
	for _, m := range r.s.movements {
		if m.WarehouseID != warehouseID {
			continue
		}
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && m.Date.After(*to) {
			continue
		}
		cp := *m
		list = append(list, &cp)
	}
	if offset > len(list) {
		offset = len(list)
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *memMovementRepo) SumByProductWarehouse(productID, warehouseID string) (decimal.Decimal, error) {
	defer lockGuard(r.s, r.lock)()
	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

var _ repository.TransactionRepository = (*memTransactionRepo)(nil)

type memTransactionRepo struct {
	s    *memStore
	lock bool
}

func (r *memTransactionRepo) Create(tx *entity.Transaction) error {
	defer lockGuard(r.s, r.lock)()
	if existing, ok := r.s.transactions[tx.ID]; ok && existing.Status != entity.TransactionStatusFailed {
		return domain.ErrDuplicate
	}
	cp := *tx
	r.s.transactions[tx.ID] = &cp
	return nil
}

func (r *memTransactionRepo) CreateLine(line *entity.TransactionLine) error {
	defer lockGuard(r.s, r.lock)()
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	cp := *line
	r.s.lines = append(r.s.lines, &cp)
	return nil
}

func (r *memTransactionRepo) GetByID(id string) (*entity.Transaction, error) {
	defer lockGuard(r.s, r.lock)()
	tx, ok := r.s.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *memTransactionRepo) ListLines(transactionID string) ([]*entity.TransactionLine, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.TransactionLine
	for _, l := range r.s.lines {
		if l.TransactionID == transactionID {
			cp := *l
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r *memTransactionRepo) UpsertFailed(tx *entity.Transaction) error {
	defer lockGuard(r.s, r.lock)()
	if existing, ok := r.s.transactions[tx.ID]; ok && existing.Status == entity.TransactionStatusCommitted {
		return nil
	}
	cp := *tx
	cp.Status = entity.TransactionStatusFailed
	r.s.transactions[tx.ID] = &cp
	return nil
}

var _ repository.ReservationRepository = (*memReservationRepo)(nil)

type memReservationRepo struct {
	s    *memStore
	lock bool
}

func (r *memReservationRepo) Create(reservation *entity.Reservation) error {
	defer lockGuard(r.s, r.lock)()
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	cp := *reservation
	r.s.reservations[reservation.ID] = &cp
	return nil
}

func (r *memReservationRepo) GetByID(id string) (*entity.Reservation, error) {
	defer lockGuard(r.s, r.lock)()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *memReservationRepo) CompareAndSetStatus(id, from, to string) (bool, error) {
	defer lockGuard(r.s, r.lock)()
	res, ok := r.s.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	return true, nil
}

func (r *memReservationRepo) ListExpired(now time.Time, limit int) ([]*entity.Reservation, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.Status == entity.ReservationStatusActive && !res.ExpiresAt.After(now) {
			cp := *res
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ExpiresAt.Before(list[j].ExpiresAt) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *memReservationRepo) ListByQuote(quoteID string) ([]*entity.Reservation, error) {
	defer lockGuard(r.s, r.lock)()
	var list []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.QuoteID == quoteID {
			cp := *res
			list = append(list, &cp)
		}
	}
	return list, nil
}

var _ repository.ProductRepository = (*memProductRepo)(nil)

type memProductRepo struct {
	s *memStore
}

func (r *memProductRepo) Create(product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[product.ID] = product
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Product
	for _, p := range r.s.products {
		cp := *p
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return strings.Compare(list[i].SKU, list[j].SKU) < 0 })
	return list, nil
}

var _ repository.WarehouseRepository = (*memWarehouseRepo)(nil)

type memWarehouseRepo struct {
	s *memStore
}

func (r *memWarehouseRepo) Create(warehouse *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.warehouses[warehouse.ID] = warehouse
	return nil
}

func (r *memWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *memWarehouseRepo) GetByCode(code string) (*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.warehouses {
		if w.Code == code {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memWarehouseRepo) List(onlyActive bool, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if onlyActive && !w.Active {
			continue
		}
		cp := *w
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Priority < list[j].Priority })
	return list, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Runner transaccional fake y notificador
// ──────────────────────────────────────────────────────────────────────────────

var _ TxRunner = (*memTxRunner)(nil)

type memTxRunner struct {
	s *memStore
}

// Run serializa las transacciones con el mutex del store y revierte con
// snapshot/restore si fn falla, emulando BEGIN/COMMIT/ROLLBACK.
func (r *memTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	txRepo repository.TransactionRepository,
	resRepo repository.ReservationRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap := r.s.snapshot()
	err := fn(
		&memStockRepo{s: r.s},
		&memMovementRepo{s: r.s},
		&memTransactionRepo{s: r.s},
		&memReservationRepo{s: r.s},
	)
	if err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

var _ StockNotifier = (*memNotifier)(nil)

type memNotifier struct {
	mu      sync.Mutex
	changes []StockChange
}

func (n *memNotifier) PublishStockChange(change StockChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *memNotifier) published() []StockChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]StockChange, len(n.changes))
	copy(out, n.changes)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture del motor completo sobre los fakes
// ──────────────────────────────────────────────────────────────────────────────

type engineFixture struct {
	store         *memStore
	runner        *memTxRunner
	stockRepo     *memStockRepo
	movRepo       *memMovementRepo
	txRepo        *memTransactionRepo
	resRepo       *memReservationRepo
	productRepo   *memProductRepo
	warehouseRepo *memWarehouseRepo
	notifier      *memNotifier

	ledger       *LedgerUseCase
	planner      *Planner
	coordinator  *CoordinatorUseCase
	reservations *ReservationUseCase
	audit        *AuditUseCase
}

func newEngineFixture() *engineFixture {
	store := newMemStore()
	f := &engineFixture{
		store:         store,
		runner:        &memTxRunner{s: store},
		stockRepo:     &memStockRepo{s: store, lock: true},
		movRepo:       &memMovementRepo{s: store, lock: true},
		txRepo:        &memTransactionRepo{s: store, lock: true},
		resRepo:       &memReservationRepo{s: store, lock: true},
		productRepo:   &memProductRepo{s: store},
		warehouseRepo: &memWarehouseRepo{s: store},
		notifier:      &memNotifier{},
	}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	f.ledger = NewLedgerUseCase(f.runner, f.productRepo, f.warehouseRepo)
	f.planner = NewPlanner()
	f.coordinator = NewCoordinatorUseCase(
		f.runner, f.ledger, f.planner,
		f.productRepo, f.stockRepo, f.txRepo, f.notifier,
	)
	f.reservations = NewReservationUseCase(
		f.runner, f.ledger, f.productRepo, f.warehouseRepo, f.resRepo, f.notifier,
	)
	f.audit = NewAuditUseCase(f.stockRepo, f.movRepo, log)
	return f
}

func (f *engineFixture) addProduct(id, sku, price string) {
	now := time.Now()
	_ = f.productRepo.Create(&entity.Product{
		ID: id, SKU: sku, Name: "producto " + sku,
		UnitPrice: dec(price), CreatedAt: now, UpdatedAt: now,
	})
}

func (f *engineFixture) addWarehouse(id, code string, priority int, active bool) {
	now := time.Now()
	_ = f.warehouseRepo.Create(&entity.Warehouse{
		ID: id, Code: code, Name: "bodega " + code,
		Active: active, Priority: priority, CreatedAt: now, UpdatedAt: now,
	})
}

// seedStock fija el stock directamente y deja el libro cuadrado con un
// movimiento IN por la cantidad inicial.
func (f *engineFixture) seedStock(productID, warehouseID, current, reserved string) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	now := time.Now()
	cur := dec(current)
	f.store.stocks[stockKey(productID, warehouseID)] = &entity.StockRecord{
		ProductID:     productID,
		WarehouseID:   warehouseID,
		CurrentStock:  cur,
		ReservedStock: dec(reserved),
		ReorderPoint:  decimal.Zero,
		Status:        domaininv.DeriveStatus(cur, decimal.Zero),
		Version:       1,
		UpdatedAt:     now,
	}
	f.store.movements = append(f.store.movements, &entity.Movement{
		ID:            uuid.New().String(),
		ProductID:     productID,
		WarehouseID:   warehouseID,
		Type:          entity.MovementTypeIN,
		Quantity:      cur,
		ReferenceType: entity.ReferenceTypeManual,
		ReferenceID:   "seed",
		Date:          now,
		CreatedAt:     now,
	})
}

func (f *engineFixture) stock(productID, warehouseID string) *entity.StockRecord {
	rec, _ := f.stockRepo.Get(productID, warehouseID)
	return rec
}

func (f *engineFixture) movementCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.movements)
}
