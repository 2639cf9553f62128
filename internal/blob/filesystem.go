package blob

import (
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed blob.Store rooted at the provided path.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
