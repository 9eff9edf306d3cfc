package journal

const Schema = `
CREATE TABLE IF NOT EXISTS fills (
	trade_id TEXT PRIMARY KEY,
	symbol   TEXT NOT NULL,
	side     TEXT NOT NULL,
	price    REAL NOT NULL,
	qty      REAL NOT NULL,
	time     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_symbol_time ON fills (symbol, time);

CREATE TABLE IF NOT EXISTS equity (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	time         TIMESTAMP NOT NULL,
	cash         REAL NOT NULL,
	equity       REAL NOT NULL,
	used_margin  REAL NOT NULL,
	margin_ratio REAL
);
`
