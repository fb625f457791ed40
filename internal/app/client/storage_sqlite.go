package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"cashcraft/internal/dbx"
	"cashcraft/internal/domain/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at INTEGER,
	updated_at INTEGER,
	synced_at INTEGER
);
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at INTEGER,
	updated_at INTEGER,
	synced_at INTEGER
);
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at INTEGER,
	updated_at INTEGER,
	synced_at INTEGER
);
CREATE TABLE IF NOT EXISTS debts (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at INTEGER,
	updated_at INTEGER,
	synced_at INTEGER
);
CREATE TABLE IF NOT EXISTS exchange_rates (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	from_currency TEXT NOT NULL,
	to_currency TEXT NOT NULL,
	rate TEXT NOT NULL,
	updated_at INTEGER
);
CREATE TABLE IF NOT EXISTS sync_metadata (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_sync_at INTEGER,
	sync_token TEXT NOT NULL DEFAULT '',
	reset_marker INTEGER NOT NULL DEFAULT 0,
	last_uploaded_seq INTEGER NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO sync_metadata (id) VALUES (1);

CREATE INDEX IF NOT EXISTS idx_accounts_pending ON accounts(synced_at, updated_at);
CREATE INDEX IF NOT EXISTS idx_transactions_pending ON transactions(synced_at, updated_at);
CREATE INDEX IF NOT EXISTS idx_rates_pair ON exchange_rates(from_currency, to_currency);
`

// table описание коллекции с id и отметками времени
type table[T any] struct {
	name   string
	id     func(*T) string
	stamps func(*T) (created, updated, synced *ledger.Timestamp)
}

var (
	accountsTable = table[ledger.Account]{
		name: "accounts",
		id:   func(r *ledger.Account) string { return r.ID },
		stamps: func(r *ledger.Account) (*ledger.Timestamp, *ledger.Timestamp, *ledger.Timestamp) {
			return &r.CreatedAt, &r.UpdatedAt, &r.SyncedAt
		},
	}
	transactionsTable = table[ledger.Transaction]{
		name: "transactions",
		id:   func(r *ledger.Transaction) string { return r.ID },
		stamps: func(r *ledger.Transaction) (*ledger.Timestamp, *ledger.Timestamp, *ledger.Timestamp) {
			return &r.CreatedAt, &r.UpdatedAt, &r.SyncedAt
		},
	}
	categoriesTable = table[ledger.Category]{
		name: "categories",
		id:   func(r *ledger.Category) string { return r.ID },
		stamps: func(r *ledger.Category) (*ledger.Timestamp, *ledger.Timestamp, *ledger.Timestamp) {
			return &r.CreatedAt, &r.UpdatedAt, &r.SyncedAt
		},
	}
	debtsTable = table[ledger.Debt]{
		name: "debts",
		id:   func(r *ledger.Debt) string { return r.ID },
		stamps: func(r *ledger.Debt) (*ledger.Timestamp, *ledger.Timestamp, *ledger.Timestamp) {
			return &r.CreatedAt, &r.UpdatedAt, &r.SyncedAt
		},
	}
)

var tableNames = map[ledger.Collection]string{
	ledger.Accounts:      "accounts",
	ledger.Transactions:  "transactions",
	ledger.Categories:    "categories",
	ledger.Debts:         "debts",
	ledger.ExchangeRates: "exchange_rates",
}

// SQLiteStorage хранилище на mattn/go-sqlite3. Отметки времени хранятся
// как unix-миллисекунды, чтобы сравнение в SQL было числовым.
type SQLiteStorage struct {
	db    *sql.DB
	ready atomic.Bool
}

// NewSQLiteStorage открывает базу; схема создается в Init
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	return openSQLite(path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
}

// NewMemoryStorage база в памяти; живет, пока открыто единственное соединение
func NewMemoryStorage() (*SQLiteStorage, error) {
	s, err := openSQLite(":memory:")
	if err != nil {
		return nil, err
	}
	s.db.SetConnMaxLifetime(0)
	return s, nil
}

func openSQLite(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	db.SetMaxOpenConns(1)

	// sql.Open не трогает файл; ошибку пути видно только на первом соединении
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	s.ready.Store(true)
	return nil
}

func (s *SQLiteStorage) IsReady() bool {
	return s.ready.Load()
}

func (s *SQLiteStorage) Close() error {
	s.ready.Store(false)
	return s.db.Close()
}

func (s *SQLiteStorage) GetAll(ctx context.Context) (*ledger.Snapshot, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	return s.load(ctx, s.db, "1=1", "1=1")
}

func (s *SQLiteStorage) Pending(ctx context.Context, since ledger.Timestamp) (*ledger.Snapshot, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	ms := since.Millis()
	// курсы без id: очередь ведется по seq, а не по часам сервера
	return s.load(ctx, s.db,
		fmt.Sprintf("synced_at IS NULL OR (updated_at > %d AND updated_at > synced_at)", ms),
		"seq > (SELECT last_uploaded_seq FROM sync_metadata WHERE id = 1)",
	)
}

func (s *SQLiteStorage) load(ctx context.Context, q dbx.DBTX, where, ratesWhere string) (*ledger.Snapshot, error) {
	var (
		snap = &ledger.Snapshot{}
		err  error
	)
	if snap.Accounts, err = loadRows(ctx, q, accountsTable, where); err != nil {
		return nil, err
	}
	if snap.Transactions, err = loadRows(ctx, q, transactionsTable, where); err != nil {
		return nil, err
	}
	if snap.Categories, err = loadRows(ctx, q, categoriesTable, where); err != nil {
		return nil, err
	}
	if snap.Debts, err = loadRows(ctx, q, debtsTable, where); err != nil {
		return nil, err
	}
	if snap.ExchangeRates, err = loadRates(ctx, q, ratesWhere); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStorage) Upsert(ctx context.Context, snap *ledger.Snapshot) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return insertSnapshot(ctx, tx, snap)
	})
}

// DeleteAll очищает одну коллекцию отдельной записью. Пайплайны синхронизации
// чистят через clearAll внутри своих транзакций тем же deleteCollection.
func (s *SQLiteStorage) DeleteAll(ctx context.Context, c ledger.Collection) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	return deleteCollection(ctx, s.db, c)
}

func (s *SQLiteStorage) ReplaceAll(ctx context.Context, snap *ledger.Snapshot, wm ledger.Watermark) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}
		if err := insertSnapshot(ctx, tx, snap); err != nil {
			return err
		}
		// скачанные курсы уже есть на сервере
		if _, err := tx.ExecContext(ctx, `UPDATE sync_metadata
			SET last_uploaded_seq = COALESCE((SELECT MAX(seq) FROM exchange_rates), last_uploaded_seq)
			WHERE id = 1`); err != nil {
			return fmt.Errorf("advance rates cursor: %w", err)
		}
		return setWatermark(ctx, tx, wm)
	})
}

func (s *SQLiteStorage) MarkSynced(ctx context.Context, sent *ledger.Snapshot, at ledger.Timestamp, wm ledger.Watermark) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := stampRows(ctx, tx, accountsTable, sent.Accounts, at); err != nil {
			return err
		}
		if err := stampRows(ctx, tx, transactionsTable, sent.Transactions, at); err != nil {
			return err
		}
		if err := stampRows(ctx, tx, categoriesTable, sent.Categories, at); err != nil {
			return err
		}
		if err := stampRows(ctx, tx, debtsTable, sent.Debts, at); err != nil {
			return err
		}
		if err := advanceRates(ctx, tx, len(sent.ExchangeRates)); err != nil {
			return err
		}
		return setWatermark(ctx, tx, wm)
	})
}

func (s *SQLiteStorage) ResetToSeed(ctx context.Context, seed *ledger.Snapshot) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := clearAll(ctx, tx); err != nil {
			return err
		}
		if err := insertSnapshot(ctx, tx, seed); err != nil {
			return err
		}
		if err := setWatermark(ctx, tx, ledger.Watermark{}); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE sync_metadata SET reset_marker = 1 WHERE id = 1`)
		return err
	})
}

func (s *SQLiteStorage) Watermark(ctx context.Context) (ledger.Watermark, error) {
	if !s.IsReady() {
		return ledger.Watermark{}, ErrNotReady
	}
	var (
		last  sql.NullInt64
		token string
	)
	err := s.db.QueryRowContext(ctx, `SELECT last_sync_at, sync_token FROM sync_metadata WHERE id = 1`).Scan(&last, &token)
	if err != nil {
		return ledger.Watermark{}, fmt.Errorf("read watermark: %w", err)
	}
	return ledger.Watermark{LastSyncAt: fromNullMillis(last), SyncToken: token}, nil
}

func (s *SQLiteStorage) ResetMarker(ctx context.Context) (bool, error) {
	if !s.IsReady() {
		return false, ErrNotReady
	}
	var marker int
	if err := s.db.QueryRowContext(ctx, `SELECT reset_marker FROM sync_metadata WHERE id = 1`).Scan(&marker); err != nil {
		return false, fmt.Errorf("read reset marker: %w", err)
	}
	return marker != 0, nil
}

func (s *SQLiteStorage) SetResetMarker(ctx context.Context, set bool) error {
	if !s.IsReady() {
		return ErrNotReady
	}
	v := 0
	if set {
		v = 1
	}
	_, err := s.db.ExecContext(ctx, `UPDATE sync_metadata SET reset_marker = ? WHERE id = 1`, v)
	return err
}

func clearAll(ctx context.Context, tx dbx.DBTX) error {
	for _, c := range ledger.AllCollections {
		if err := deleteCollection(ctx, tx, c); err != nil {
			return err
		}
	}
	return nil
}

func deleteCollection(ctx context.Context, q dbx.DBTX, c ledger.Collection) error {
	name, ok := tableNames[c]
	if !ok {
		return fmt.Errorf("unknown collection %q", c)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM "+name); err != nil {
		return fmt.Errorf("clear %s: %w", c, err)
	}
	return nil
}

// advanceRates сдвигает курсор курсов на n отправленных строк. Pending отдает
// их по возрастанию seq, поэтому курс, добавленный во время запроса, остается в очереди.
func advanceRates(ctx context.Context, tx dbx.DBTX, n int) error {
	if n == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `UPDATE sync_metadata SET last_uploaded_seq = COALESCE(
			(SELECT seq FROM exchange_rates WHERE seq > sync_metadata.last_uploaded_seq ORDER BY seq LIMIT 1 OFFSET ?),
			last_uploaded_seq)
		WHERE id = 1`, n-1)
	if err != nil {
		return fmt.Errorf("advance rates cursor: %w", err)
	}
	return nil
}

func setWatermark(ctx context.Context, tx dbx.DBTX, wm ledger.Watermark) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE sync_metadata SET last_sync_at = ?, sync_token = ? WHERE id = 1`,
		nullMillis(wm.LastSyncAt), wm.SyncToken,
	)
	if err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx dbx.DBTX, snap *ledger.Snapshot) error {
	if snap == nil {
		return nil
	}
	if err := upsertRows(ctx, tx, accountsTable, snap.Accounts); err != nil {
		return err
	}
	if err := upsertRows(ctx, tx, transactionsTable, snap.Transactions); err != nil {
		return err
	}
	if err := upsertRows(ctx, tx, categoriesTable, snap.Categories); err != nil {
		return err
	}
	if err := upsertRows(ctx, tx, debtsTable, snap.Debts); err != nil {
		return err
	}
	for _, r := range snap.ExchangeRates {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO exchange_rates (from_currency, to_currency, rate, updated_at) VALUES (?, ?, ?, ?)`,
			r.FromCurrency, r.ToCurrency, r.Rate.String(), nullMillis(r.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert exchange rate %s: %w", r.Pair(), err)
		}
	}
	return nil
}

func upsertRows[T any](ctx context.Context, tx dbx.DBTX, t table[T], recs []T) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, created_at, updated_at, synced_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at`, t.name)

	for i := range recs {
		rec := &recs[i]
		created, updated, synced := t.stamps(rec)
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", t.name, t.id(rec), err)
		}
		if _, err := tx.ExecContext(ctx, query,
			t.id(rec), string(data), nullMillis(*created), nullMillis(*updated), nullMillis(*synced),
		); err != nil {
			return fmt.Errorf("upsert %s %s: %w", t.name, t.id(rec), err)
		}
	}
	return nil
}

func loadRows[T any](ctx context.Context, q dbx.DBTX, t table[T], where string) ([]T, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT data, synced_at FROM %s WHERE %s ORDER BY rowid`, t.name, where))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var (
			data   string
			synced sql.NullInt64
			rec    T
		)
		if err := rows.Scan(&data, &synced); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.name, err)
		}
		_, _, syncedAt := t.stamps(&rec)
		*syncedAt = fromNullMillis(synced)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func stampRows[T any](ctx context.Context, tx dbx.DBTX, t table[T], sent []T, at ledger.Timestamp) error {
	// запись, измененная после отправки, остается в очереди
	query := fmt.Sprintf(`UPDATE %s SET synced_at = ? WHERE id = ? AND IFNULL(updated_at, 0) = ?`, t.name)
	for i := range sent {
		rec := &sent[i]
		_, updated, _ := t.stamps(rec)
		if _, err := tx.ExecContext(ctx, query, at.Millis(), t.id(rec), updated.Millis()); err != nil {
			return fmt.Errorf("stamp %s %s: %w", t.name, t.id(rec), err)
		}
	}
	return nil
}

func loadRates(ctx context.Context, q dbx.DBTX, where string) ([]ledger.ExchangeRate, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT from_currency, to_currency, rate, updated_at FROM exchange_rates WHERE `+where+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query exchange_rates: %w", err)
	}
	defer rows.Close()

	out := make([]ledger.ExchangeRate, 0)
	for rows.Next() {
		var (
			r       ledger.ExchangeRate
			rate    string
			updated sql.NullInt64
		)
		if err := rows.Scan(&r.FromCurrency, &r.ToCurrency, &rate, &updated); err != nil {
			return nil, fmt.Errorf("scan exchange_rates: %w", err)
		}
		if r.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("decode rate %s/%s: %w", r.FromCurrency, r.ToCurrency, err)
		}
		r.UpdatedAt = fromNullMillis(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullMillis(ts ledger.Timestamp) sql.NullInt64 {
	if ts.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ts.Millis(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) ledger.Timestamp {
	if !v.Valid {
		return ledger.Timestamp{}
	}
	return ledger.FromMillis(v.Int64)
}

var _ Storage = (*SQLiteStorage)(nil)
