package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob"
)

// Artifact is a rendered export stored in blob storage.
type Artifact struct {
	Info blob.Info
	URL  string // empty when the backend cannot sign URLs
}

// Publish stores payload under key and returns a download URL when the
// backend can produce one.
func Publish(ctx context.Context, store blob.Store, key, contentType string, payload []byte) (Artifact, error) {
	info, err := store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"generated_at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("publish %s: %w", key, err)
	}
	url, err := store.PresignURL(ctx, key, blob.SignedURLOptions{Expiry: 15 * time.Minute})
	if err != nil && !errors.Is(err, blob.ErrUnsupported) {
		return Artifact{}, fmt.Errorf("sign %s: %w", key, err)
	}
	return Artifact{Info: info, URL: url}, nil
}
