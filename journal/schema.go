package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	amount REAL NOT NULL,
	quantity REAL NOT NULL,
	asset_price REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	value REAL NOT NULL,
	buy_power REAL NOT NULL,
	num_holdings INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_time ON orders(time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
