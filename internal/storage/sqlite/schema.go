package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	nickname   TEXT PRIMARY KEY,
	credits    INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS items_master (
	item_key TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	price    INTEGER NOT NULL CHECK (price > 0)
);

CREATE TABLE IF NOT EXISTS account_items (
	nickname TEXT NOT NULL REFERENCES accounts(nickname),
	item_key TEXT NOT NULL,
	PRIMARY KEY (nickname, item_key)
);
`
