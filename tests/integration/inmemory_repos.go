package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Wallet Repo ---

// inMemoryWalletRepo emulates the row-locking contract of the Postgres repo:
// LockForUpdate takes a per-wallet mutex and registers it on the transaction,
// which releases it on Commit or Rollback. Two concurrent transfers touching
// the same wallet therefore serialize exactly as they would under
// SELECT ... FOR UPDATE.
type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[int64]*domain.Wallet // by wallet id
	byUser  map[int64]int64          // user id -> wallet id
	rowLock map[int64]*sync.Mutex    // per-wallet row lock
	nextID  int64
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[int64]*domain.Wallet),
		byUser:  make(map[int64]int64),
		rowLock: make(map[int64]*sync.Mutex),
	}
}

func (r *inMemoryWalletRepo) CreateForUser(ctx context.Context, userID int64) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID]; ok {
		return nil, domain.ErrDuplicateWallet
	}
	r.nextID++
	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:        r.nextID,
		UserID:    userID,
		Balance:   0,
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.wallets[w.ID] = w
	r.byUser[userID] = w.ID
	r.rowLock[w.ID] = &sync.Mutex{}
	copied := *w
	return &copied, nil
}

func (r *inMemoryWalletRepo) FindByUserID(ctx context.Context, userID int64) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, nil
	}
	copied := *r.wallets[id]
	return &copied, nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (r *inMemoryWalletRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*domain.Wallet, error) {
	r.mu.RLock()
	id, ok := r.byUser[userID]
	if !ok {
		r.mu.RUnlock()
		return nil, nil
	}
	lock := r.rowLock[id]
	r.mu.RUnlock()

	// Block until the competing transaction releases the row.
	lock.Lock()
	mt, ok := tx.(*memTx)
	if !ok {
		lock.Unlock()
		return nil, fmt.Errorf("LockForUpdate requires a memTx, got %T", tx)
	}
	mt.onClose(lock.Unlock)

	r.mu.RLock()
	defer r.mu.RUnlock()
	copied := *r.wallets[id]
	return &copied, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID int64, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %d not found", walletID)
	}
	w.Balance = newBalance
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) UpdatePINHash(ctx context.Context, walletID int64, pinHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet %d not found", walletID)
	}
	w.PINHash = &pinHash
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) List(ctx context.Context) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Wallet, 0, len(r.wallets))
	for _, w := range r.wallets {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// setStatus is a test helper for deactivating wallets.
func (r *inMemoryWalletRepo) setStatus(walletID int64, status domain.WalletStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[walletID].Status = status
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
	nextID  int64
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{}
}

func (r *inMemoryLedgerRepo) Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryLedgerRepo) EntriesForWallet(ctx context.Context, walletID int64, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LedgerEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if e.WalletID != nil && *e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *inMemoryLedgerRepo) EntriesByReference(ctx context.Context, ref domain.Reference) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LedgerEntry
	for _, e := range r.entries {
		if e.Reference != nil && *e.Reference == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

// all returns every entry in insertion order, for reconstruction checks.
func (r *inMemoryLedgerRepo) all() []domain.LedgerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.LedgerEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// --- In-Memory Transfer Repo ---

type inMemoryTransferRepo struct {
	mu        sync.RWMutex
	transfers map[int64]*domain.Transfer
	byKey     map[string]int64
	nextID    int64
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{
		transfers: make(map[int64]*domain.Transfer),
		byKey:     make(map[string]int64),
	}
}

func (r *inMemoryTransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[transfer.IdempotencyKey]; ok {
		return domain.ErrDuplicateTransfer
	}
	r.nextID++
	transfer.ID = r.nextID
	now := time.Now().UTC()
	transfer.CreatedAt = now
	transfer.UpdatedAt = now
	copied := *transfer
	r.transfers[transfer.ID] = &copied
	r.byKey[transfer.IdempotencyKey] = transfer.ID
	return nil
}

func (r *inMemoryTransferRepo) GetByID(ctx context.Context, id int64) (*domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *inMemoryTransferRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[key]
	if !ok {
		return nil, nil
	}
	copied := *r.transfers[id]
	return &copied, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
	nextID  int64
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func idemKey(userID int64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := idemKey(rec.UserID, rec.Key)
	// ON CONFLICT DO NOTHING semantics
	if _, ok := r.records[k]; ok {
		return nil
	}
	r.nextID++
	rec.ID = r.nextID
	rec.CreatedAt = time.Now().UTC()
	copied := *rec
	r.records[k] = &copied
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, userID int64, key string) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[idemKey(userID, key)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

// --- In-Memory Snapshot Repo ---

type snapshotRow struct {
	WalletID int64
	Balance  int64
	TakenAt  time.Time
}

type inMemorySnapshotRepo struct {
	mu   sync.Mutex
	rows []snapshotRow
}

func newInMemorySnapshotRepo() *inMemorySnapshotRepo {
	return &inMemorySnapshotRepo{}
}

func (r *inMemorySnapshotRepo) Insert(ctx context.Context, walletID int64, balance int64, takenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, snapshotRow{WalletID: walletID, Balance: balance, TakenAt: takenAt})
	return nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx is a pgx.Tx implementation that tracks the row locks taken during
// the transaction and releases them exactly once on Commit or Rollback.
type memTx struct {
	mu       sync.Mutex
	closers  []func()
	finished bool
}

func (t *memTx) onClose(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closers = append(t.closers, f)
}

func (t *memTx) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	// Release in reverse acquisition order.
	for i := len(t.closers) - 1; i >= 0; i-- {
		t.closers[i]()
	}
	t.closers = nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.close(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.close(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
