package planning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/geo"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/orders"
	"github.com/gidabrams23/COT-Freight-Optimization-Tool-sub000/internal/domain/rating"
)

// Planning setting keys
const (
	SettingStrategicCustomers    = "strategic_customers"
	SettingStrategicCustomerRule = "strategic_customer_rules"
)

// Snapshot is the point-in-time configuration a run works against. All
// lookups during one optimization resolve against the same snapshot, so a
// concurrent admin edit never splits a run's view of the world.
type Snapshot struct {
	Catalog   *orders.SkuCatalog
	Rates     *rating.RateTable
	Gazetteer *geo.Gazetteer
	Strategic []orders.StrategicCustomer
}

// SnapshotSources are the repositories a snapshot loads from
type SnapshotSources struct {
	Skus      orders.SkuRepository
	Strategic orders.StrategicRepository
	Rates     rating.Repository
	Geo       geo.Repository
	Settings  SettingsReader
}

// SettingsReader is the read side of the planning settings store
type SettingsReader interface {
	GetPlanningSetting(ctx context.Context, key string) (string, bool, error)
}

// LoadSnapshot reads every configuration aggregate once. The strategic
// customer list prefers the settings text (admin-edited, bin-exact format)
// and falls back to the repository rows; per-customer rule flags merge in
// from the companion setting.
func LoadSnapshot(ctx context.Context, src SnapshotSources, defaultRatePerMile, fuelSurchargePerMile float64) (*Snapshot, error) {
	specs, err := src.Skus.ListSkuSpecs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sku specs: %w", err)
	}

	rateRows, err := src.Rates.ListRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate matrix: %w", err)
	}

	plants, err := src.Geo.ListPlants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plants: %w", err)
	}
	zips, err := src.Geo.ListZipCoordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load zip coordinates: %w", err)
	}

	strategic, err := loadStrategicCustomers(ctx, src)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Catalog:   orders.NewSkuCatalog(specs),
		Rates:     rating.NewRateTable(rateRows, defaultRatePerMile, fuelSurchargePerMile),
		Gazetteer: geo.NewGazetteer(plants, zips),
		Strategic: strategic,
	}, nil
}

func loadStrategicCustomers(ctx context.Context, src SnapshotSources) ([]orders.StrategicCustomer, error) {
	var customers []orders.StrategicCustomer

	if src.Settings != nil {
		text, found, err := src.Settings.GetPlanningSetting(ctx, SettingStrategicCustomers)
		if err != nil {
			return nil, fmt.Errorf("load strategic customer setting: %w", err)
		}
		if found {
			customers = orders.ParseStrategicCustomers(text)
		}
	}

	if customers == nil && src.Strategic != nil {
		listed, err := src.Strategic.ListStrategicCustomers(ctx)
		if err != nil {
			return nil, fmt.Errorf("load strategic customers: %w", err)
		}
		customers = listed
	}

	if len(customers) == 0 || src.Settings == nil {
		return customers, nil
	}

	rulesText, found, err := src.Settings.GetPlanningSetting(ctx, SettingStrategicCustomerRule)
	if err != nil {
		return nil, fmt.Errorf("load strategic rule setting: %w", err)
	}
	if !found || rulesText == "" {
		return customers, nil
	}

	rules := map[string]orders.StrategicRule{}
	if err := json.Unmarshal([]byte(rulesText), &rules); err != nil {
		return nil, fmt.Errorf("parse strategic rule setting: %w", err)
	}
	return orders.ApplyRules(customers, rules), nil
}
