package registry

const schema = `
CREATE TABLE IF NOT EXISTS releases (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	version    TEXT NOT NULL,
	digest     TEXT NOT NULL,
	size       INTEGER NOT NULL,
	artifact   TEXT NOT NULL,
	manifest   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(name, version)
);

CREATE INDEX IF NOT EXISTS idx_releases_name ON releases(name);
`
