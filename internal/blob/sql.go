package blob

import (
	"context"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/infra/blob/sqlstore"
)

// NewSQL opens a table-backed store for sqlite, postgres or mysql.
func NewSQL(ctx context.Context, driver Driver, dsn string) (Store, error) {
	dialect, err := sqlstore.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	return sqlstore.Open(ctx, dialect, dsn)
}
