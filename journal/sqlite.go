package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(order_id, time, instrument, side, amount, quantity, asset_price, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Time, o.Instrument, o.Side,
		o.Amount, o.Quantity, o.AssetPrice, o.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordSnapshot(s SnapshotRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, value, buy_power, num_holdings)
		VALUES (?, ?, ?, ?)`,
		s.Time, s.Value, s.BuyPower, s.NumHoldings,
	)
	return err
}

// ListOrders returns recorded orders in insertion order. ULIDs sort by
// generation time so ordering by order_id is chronological.
func (j *SQLiteJournal) ListOrders() ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, time, instrument, side, amount, quantity, asset_price, reason
		FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		if err := rows.Scan(&o.ID, &o.Time, &o.Instrument, &o.Side,
			&o.Amount, &o.Quantity, &o.AssetPrice, &o.Reason); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListSnapshots returns recorded equity snapshots ordered by time.
func (j *SQLiteJournal) ListSnapshots() ([]SnapshotRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, value, buy_power, num_holdings
		FROM equity ORDER BY time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var s SnapshotRecord
		if err := rows.Scan(&s.Time, &s.Value, &s.BuyPower, &s.NumHoldings); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
