package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob/core"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Driver     core.Driver
	SQLDriver  string // database/sql driver name
	createDDL  string
	upsertTail string
	numbered   bool // $1 style placeholders
}

const table = "sarc_blobs"

var (
	// SQLite targets modernc.org/sqlite.
	SQLite = Dialect{
		Driver:    core.DriverSQLite,
		SQLDriver: "sqlite",
		createDDL: `CREATE TABLE IF NOT EXISTS ` + table + ` (
			blob_key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '',
			etag TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		upsertTail: ` ON CONFLICT(blob_key) DO UPDATE SET payload=excluded.payload, content_type=excluded.content_type, metadata=excluded.metadata, etag=excluded.etag, updated_at=excluded.updated_at`,
	}
	// Postgres targets the pgx stdlib driver.
	Postgres = Dialect{
		Driver:    core.DriverPostgres,
		SQLDriver: "pgx",
		createDDL: `CREATE TABLE IF NOT EXISTS ` + table + ` (
			blob_key TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '',
			etag TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		upsertTail: ` ON CONFLICT(blob_key) DO UPDATE SET payload=excluded.payload, content_type=excluded.content_type, metadata=excluded.metadata, etag=excluded.etag, updated_at=excluded.updated_at`,
		numbered:   true,
	}
	// MySQL targets go-sql-driver/mysql.
	MySQL = Dialect{
		Driver:    core.DriverMySQL,
		SQLDriver: "mysql",
		createDDL: `CREATE TABLE IF NOT EXISTS ` + table + ` (
			blob_key VARCHAR(512) NOT NULL PRIMARY KEY,
			payload LONGBLOB NOT NULL,
			content_type VARCHAR(255) NOT NULL DEFAULT '',
			metadata TEXT NOT NULL,
			etag VARCHAR(64) NOT NULL,
			updated_at BIGINT NOT NULL
		) CHARACTER SET utf8mb4`,
		upsertTail: ` ON DUPLICATE KEY UPDATE payload=VALUES(payload), content_type=VALUES(content_type), metadata=VALUES(metadata), etag=VALUES(etag), updated_at=VALUES(updated_at)`,
	}
)

// DialectFor maps a blob driver to its SQL dialect.
func DialectFor(driver core.Driver) (Dialect, error) {
	switch driver {
	case core.DriverSQLite:
		return SQLite, nil
	case core.DriverPostgres:
		return Postgres, nil
	case core.DriverMySQL:
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("no sql dialect for blob driver %s", driver)
	}
}

// rebind rewrites ? placeholders for engines that number them.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) upsertSQL() string {
	return d.rebind(`INSERT INTO `+table+`(blob_key, payload, content_type, metadata, etag, updated_at) VALUES(?,?,?,?,?,?)`) + d.upsertTail
}

func (d Dialect) selectSQL(withPayload bool) string {
	cols := "blob_key, content_type, metadata, etag, updated_at, " + lengthFunc(d) + "(payload)"
	if withPayload {
		cols += ", payload"
	}
	return d.rebind(`SELECT ` + cols + ` FROM ` + table + ` WHERE blob_key = ?`)
}

func (d Dialect) listSQL(prefixed bool) string {
	q := `SELECT blob_key, content_type, metadata, etag, updated_at, ` + lengthFunc(d) + `(payload) FROM ` + table
	if prefixed {
		q += ` WHERE substr(blob_key, 1, ?) = ?`
	}
	return d.rebind(q + ` ORDER BY blob_key`)
}

func (d Dialect) deleteSQL() string {
	return d.rebind(`DELETE FROM ` + table + ` WHERE blob_key = ?`)
}

func lengthFunc(d Dialect) string {
	switch d.Driver {
	case core.DriverPostgres:
		return "octet_length"
	case core.DriverMySQL:
		return "OCTET_LENGTH"
	default:
		return "length"
	}
}
