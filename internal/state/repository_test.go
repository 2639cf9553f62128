package state

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/auth"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/core"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

var fixedNow = time.Date(2024, 1, 10, 16, 45, 0, 0, time.UTC)

type captureLogger struct{ warnings []string }

func (l *captureLogger) Debug(string, ...any)      {}
func (l *captureLogger) Info(string, ...any)       {}
func (l *captureLogger) Warn(msg string, _ ...any) { l.warnings = append(l.warnings, msg) }
func (l *captureLogger) Error(string, ...any)      {}

func populatedService(t *testing.T, repo *Repository) *core.Service {
	t.Helper()
	ctx := context.Background()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(),
		core.WithClock(core.ClockFunc(func() time.Time { return fixedNow })),
		core.WithPersister(repo))
	advisor, _, err := svc.CreateAdvisor(ctx, domain.Advisor{Name: "Carlos Méndez", Email: "carlos@empresa.com", Tier: domain.TierSenior, Zone: "Centro"})
	if err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	c1, _, err := svc.CreateClient(ctx, domain.Client{Name: "Supermercado Éxito", TaxID: "900123456", Type: domain.ClientWholesaler, Zone: "Centro"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	kmStart, kmEnd := int64(1200), int64(1260)
	route, _, err := svc.CreateRoute(ctx, domain.Route{
		AdvisorID: advisor.ID, Date: "2024-01-10", StartTime: "08:00", Zone: "Centro",
		Status: domain.RouteCompleted, KmStart: &kmStart, KmEnd: &kmEnd, ClientIDs: []int64{c1.ID},
	})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	if _, _, err := svc.CreateSurvey(ctx, domain.Survey{RouteID: route.ID, ClientID: c1.ID, Rating: 5, Date: "2024-01-10"}); err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return svc
}

func readBlob(t *testing.T, store blob.Store, key string) []byte {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return raw
}

func TestRoundTripIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	first := blob.NewMemory()
	repo := NewRepository(first, WithPrefix("sarc/"))
	populatedService(t, repo)

	loaded, err := repo.LoadDomain(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reloaded := core.NewInMemoryService(core.NewDefaultRulesEngine())
	reloaded.Load(loaded)

	second := blob.NewMemory()
	if err := NewRepository(second, WithPrefix("sarc/")).SaveDomain(ctx, reloaded.Store().ExportState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, name := range []string{KeyAdvisors, KeyClients, KeyRoutes, KeySurveys} {
		a := readBlob(t, first, "sarc/"+name)
		b := readBlob(t, second, "sarc/"+name)
		if !bytes.Equal(a, b) {
			t.Fatalf("%s differs after round trip:\n%s\n%s", name, a, b)
		}
	}
}

func TestSaveAllWritesEveryCollection(t *testing.T) {
	store := blob.NewMemory()
	repo := NewRepository(store)
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithPersister(repo))
	if _, _, err := svc.CreateAdvisor(context.Background(), domain.Advisor{Name: "Ana Rodríguez", Email: "ana@empresa.com", Tier: domain.TierJunior}); err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	for _, name := range []string{KeyAdvisors, KeyClients, KeyRoutes, KeySurveys} {
		raw := readBlob(t, store, name)
		if name != KeyAdvisors && string(raw) != "[]" {
			t.Fatalf("expected empty array for %s, got %s", name, raw)
		}
	}
}

func TestLoadDomainToleratesMissingAndCorruptBlobs(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	logger := &captureLogger{}
	repo := NewRepository(store, WithLogger(logger))
	if _, err := store.Put(ctx, KeyRoutes, strings.NewReader("{not json"), blob.PutOptions{}); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	if _, err := store.Put(ctx, KeyClients, strings.NewReader(`[{"id":7,"name":"Tienda Sur","tax_id":"800111222","type":"minorista","status":"activo"}]`), blob.PutOptions{}); err != nil {
		t.Fatalf("seed clients: %v", err)
	}
	snap, err := repo.LoadDomain(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Routes) != 0 || len(snap.Advisors) != 0 || len(snap.Surveys) != 0 {
		t.Fatalf("expected empty collections, got %+v", snap)
	}
	if len(snap.Clients) != 1 || snap.Clients[0].ID != 7 {
		t.Fatalf("expected parsed client, got %+v", snap.Clients)
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("expected one warning for the corrupt blob, got %v", logger.warnings)
	}
}

func TestLoadDiscardsPartiallyDecodedCollections(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	logger := &captureLogger{}
	repo := NewRepository(store, WithLogger(logger))
	blobs := map[string]string{
		KeyAdvisors: `[{"id":1,"name":"Carlos Méndez","email":"carlos@empresa.com"},{"id":"two","name":"Ana"}]`,
		KeyUsers:    `[{"id":5,"username":"admin"},{"id":6,"username":7}]`,
	}
	for key, body := range blobs {
		if _, err := store.Put(ctx, key, strings.NewReader(body), blob.PutOptions{}); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
	snap, err := repo.LoadDomain(ctx)
	if err != nil {
		t.Fatalf("load domain: %v", err)
	}
	if snap.Advisors != nil {
		t.Fatalf("expected no advisors from a bad array, got %+v", snap.Advisors)
	}
	users, err := repo.LoadUsers(ctx)
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	if users != nil {
		t.Fatalf("expected no users from a bad array, got %+v", users)
	}
	if len(logger.warnings) != 2 {
		t.Fatalf("expected a warning per bad blob, got %v", logger.warnings)
	}
	dir, err := auth.OpenDirectory(ctx, repo, auth.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("open directory: %v", err)
	}
	if got := len(dir.Users()); got != 3 {
		t.Fatalf("expected the default accounts to be seeded, got %d users", got)
	}
}

type failingStore struct {
	blob.Store
}

func (failingStore) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, nil, errors.New("backend down")
}

func (failingStore) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("backend down")
}

func TestBackendFailuresSurface(t *testing.T) {
	repo := NewRepository(failingStore{Store: blob.NewMemory()})
	if _, err := repo.LoadDomain(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if err := repo.SaveDomain(context.Background(), domain.Snapshot{}); err == nil || !strings.Contains(err.Error(), "write advisors") {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
}

func TestUsersAndSession(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(blob.NewMockS3ForTests(), WithPrefix("sarc/"))
	users, err := repo.LoadUsers(ctx)
	if err != nil || users != nil {
		t.Fatalf("expected no users, got %v %v", users, err)
	}
	admin := domain.User{ID: 1, Username: "admin", Name: "Administrador", Role: domain.RoleAdmin, Status: domain.StatusActive, RegisteredAt: fixedNow}
	if err := repo.SaveUsers(ctx, []domain.User{admin}); err != nil {
		t.Fatalf("save users: %v", err)
	}
	users, err = repo.LoadUsers(ctx)
	if err != nil || len(users) != 1 || users[0].Username != "admin" {
		t.Fatalf("unexpected users %v %v", users, err)
	}

	if _, ok, err := repo.LoadSession(ctx); err != nil || ok {
		t.Fatalf("expected no session, got %v %v", ok, err)
	}
	if err := repo.SaveSession(ctx, admin); err != nil {
		t.Fatalf("save session: %v", err)
	}
	current, ok, err := repo.LoadSession(ctx)
	if err != nil || !ok || current.Username != "admin" {
		t.Fatalf("unexpected session %v %v %v", current, ok, err)
	}
	if err := repo.ClearSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := repo.LoadSession(ctx); ok {
		t.Fatalf("expected session cleared")
	}
	if err := repo.ClearSession(ctx); err != nil {
		t.Fatalf("clearing twice should be harmless: %v", err)
	}
}
