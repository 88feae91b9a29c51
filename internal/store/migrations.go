package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create members",
		SQL: `
			CREATE TABLE members (
				seq       INTEGER PRIMARY KEY AUTOINCREMENT,
				id        TEXT NOT NULL UNIQUE,
				name      TEXT NOT NULL DEFAULT '',
				email     TEXT NOT NULL DEFAULT '',
				added_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "index member emails",
		SQL:     `CREATE INDEX idx_members_email ON members (email);`,
	},
}
