package core

import (
	"context"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// DemoAdvisors and DemoClients are the sample records loaded by SeedDemo.
var (
	DemoAdvisors = []Advisor{
		{Name: "Carlos Méndez", Email: "carlos@empresa.com", Phone: "3001234567", Tier: domain.TierSenior, Zone: "Centro"},
		{Name: "Ana Rodríguez", Email: "ana@empresa.com", Phone: "3109876543", Tier: domain.TierJunior, Zone: "Norte"},
	}
	DemoClients = []Client{
		{Name: "Supermercado Éxito", TaxID: "900123456", Type: domain.ClientWholesaler, ContactName: "Laura Gómez", Phone: "6012345678", Address: "Calle 10 # 20-30", City: "Bogotá", Zone: "Centro"},
		{Name: "Distribuidora Andina", TaxID: "800987654", Type: domain.ClientDistributor, ContactName: "Pedro Ruiz", Phone: "6049876543", Address: "Carrera 45 # 12-08", City: "Medellín", Zone: "Norte"},
	}
)

// SeedDemo loads the demo advisors and clients in a single transaction when
// both collections are empty. It reports whether anything was written.
func (s *Service) SeedDemo(ctx context.Context) (bool, error) {
	seeded := false
	_, err := s.mutate(ctx, "seed_demo", func(tx Transaction) (int64, error) {
		view := tx.Snapshot()
		for range view.Advisors() {
			return 0, nil
		}
		for range view.Clients() {
			return 0, nil
		}
		for _, a := range DemoAdvisors {
			if _, err := tx.CreateAdvisor(a); err != nil {
				return 0, err
			}
		}
		for _, c := range DemoClients {
			if _, err := tx.CreateClient(c); err != nil {
				return 0, err
			}
		}
		seeded = true
		return 0, nil
	})
	return seeded, err
}
