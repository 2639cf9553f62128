package blob

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  Config
		want Driver
	}{
		{name: "default is filesystem", cfg: Config{FSRoot: t.TempDir()}, want: DriverFilesystem},
		{name: "memory", cfg: Config{Driver: DriverMemory}, want: DriverMemory},
		{name: "sqlite", cfg: Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "sarc.db")}, want: DriverSQLite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			t.Cleanup(func() { _ = Close(store) })
			if store.Driver() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, store.Driver())
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestMockS3Driver(t *testing.T) {
	if NewMockS3ForTests().Driver() != DriverS3 {
		t.Fatalf("expected s3 driver")
	}
}
