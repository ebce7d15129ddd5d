package persistence

import (
	"time"
)

// OrderLineModel represents the order_lines table, one row per shippable
// sales order line from the ERP extract
type OrderLineModel struct {
	ID            uint       `gorm:"column:id;primaryKey;autoIncrement"`
	SoNum         string     `gorm:"column:so_num;index:idx_order_lines_so;not null"`
	Plant         string     `gorm:"column:plant;size:2;index:idx_order_lines_plant;not null"`
	Item          string     `gorm:"column:item"`
	Sku           string     `gorm:"column:sku;size:64"`
	Qty           int        `gorm:"column:qty;not null"`
	UnitLengthFt  float64    `gorm:"column:unit_length_ft"`
	TotalLengthFt float64    `gorm:"column:total_length_ft"`
	MaxStack      int        `gorm:"column:max_stack"`
	City          string     `gorm:"column:city"`
	State         string     `gorm:"column:state;size:2"`
	Zip           string     `gorm:"column:zip;size:10"`
	DueDate       *time.Time `gorm:"column:due_date"`
	CustName      string     `gorm:"column:cust_name"`
	Status        string     `gorm:"column:status;size:16;default:'OPEN'"`
	IsExcluded    bool       `gorm:"column:is_excluded;default:false"`
}

func (OrderLineModel) TableName() string {
	return "order_lines"
}

// OrderModel represents the orders table (sales order headers)
type OrderModel struct {
	SoNum    string     `gorm:"column:so_num;primaryKey"`
	Plant    string     `gorm:"column:plant;primaryKey;size:2"`
	CustName string     `gorm:"column:cust_name"`
	City     string     `gorm:"column:city"`
	State    string     `gorm:"column:state;size:2"`
	Zip      string     `gorm:"column:zip;size:10"`
	DueDate  *time.Time `gorm:"column:due_date"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// SkuSpecModel represents the sku_specs table
type SkuSpecModel struct {
	Sku                string  `gorm:"column:sku;primaryKey;size:64"`
	Category           string  `gorm:"column:category;size:32"`
	LengthWithTongueFt float64 `gorm:"column:length_with_tongue_ft"`
	MaxStackStepDeck   int     `gorm:"column:max_stack_step_deck"`
	MaxStackFlatbed    int     `gorm:"column:max_stack_flatbed"`
}

func (SkuSpecModel) TableName() string {
	return "sku_specs"
}

// RateModel represents the freight_rates table, one linehaul rate per
// (plant, destination state, effective year) lane
type RateModel struct {
	OriginPlant      string  `gorm:"column:origin_plant;primaryKey;size:2"`
	DestinationState string  `gorm:"column:destination_state;primaryKey;size:2"`
	EffectiveYear    int     `gorm:"column:effective_year;primaryKey"`
	RatePerMile      float64 `gorm:"column:rate_per_mile;not null"`
}

func (RateModel) TableName() string {
	return "freight_rates"
}

// PlantModel represents the plants table
type PlantModel struct {
	Code string  `gorm:"column:code;primaryKey;size:2"`
	Name string  `gorm:"column:name"`
	Lat  float64 `gorm:"column:lat;not null"`
	Lng  float64 `gorm:"column:lng;not null"`
}

func (PlantModel) TableName() string {
	return "plants"
}

// ZipCoordModel represents the zip_coordinates table
type ZipCoordModel struct {
	Zip string  `gorm:"column:zip;primaryKey;size:5"`
	Lat float64 `gorm:"column:lat;not null"`
	Lng float64 `gorm:"column:lng;not null"`
}

func (ZipCoordModel) TableName() string {
	return "zip_coordinates"
}

// PlanningSettingModel represents the planning_settings table of
// admin-edited key/value settings
type PlanningSettingModel struct {
	SettingKey string    `gorm:"column:setting_key;primaryKey;size:64"`
	Value      string    `gorm:"column:value;type:text"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PlanningSettingModel) TableName() string {
	return "planning_settings"
}

// StrategicCustomerModel represents the strategic_customers table.
// Patterns is a comma-separated list of normalized name fragments.
type StrategicCustomerModel struct {
	CustKey                string `gorm:"column:cust_key;primaryKey;size:64"`
	Label                  string `gorm:"column:label"`
	Patterns               string `gorm:"column:patterns;type:text"`
	DueDateFlexDays        *int   `gorm:"column:due_date_flex_days"`
	NoMix                  bool   `gorm:"column:no_mix;default:false"`
	DefaultWedge51         bool   `gorm:"column:default_wedge51;default:false"`
	RequiresReturnToOrigin bool   `gorm:"column:requires_return_to_origin;default:false"`
	IgnoreForOptimization  bool   `gorm:"column:ignore_for_optimization;default:false"`
}

func (StrategicCustomerModel) TableName() string {
	return "strategic_customers"
}

// LoadModel represents the loads table
type LoadModel struct {
	ID                   uint       `gorm:"column:id;primaryKey;autoIncrement"`
	LoadNumber           string     `gorm:"column:load_number;index"`
	OriginPlant          string     `gorm:"column:origin_plant;size:2;index:idx_loads_plant_status;not null"`
	DestinationState     string     `gorm:"column:destination_state;size:2"`
	TrailerType          string     `gorm:"column:trailer_type;size:16"`
	Status               string     `gorm:"column:status;size:16;index:idx_loads_plant_status;not null"`
	BuildSource          string     `gorm:"column:build_source;size:16"`
	UtilizationPct       float64    `gorm:"column:utilization_pct"`
	EstimatedMiles       float64    `gorm:"column:estimated_miles"`
	EstimatedCost        float64    `gorm:"column:estimated_cost"`
	StandaloneCost       float64    `gorm:"column:standalone_cost"`
	ConsolidationSavings float64    `gorm:"column:consolidation_savings"`
	FragilityScore       int        `gorm:"column:fragility_score"`
	Grade                string     `gorm:"column:grade;size:1"`
	StopCount            int        `gorm:"column:stop_count"`
	OrderCount           int        `gorm:"column:order_count"`
	ReturnToOrigin       bool       `gorm:"column:return_to_origin;default:false"`
	DueDateMin           *time.Time `gorm:"column:due_date_min"`
	DueDateMax           *time.Time `gorm:"column:due_date_max"`
	SessionID            string     `gorm:"column:session_id;index"`
	RouteProvider        string     `gorm:"column:route_provider;size:32"`
	RouteFallback        bool       `gorm:"column:route_fallback;default:false"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (LoadModel) TableName() string {
	return "loads"
}

// LoadLineModel represents the load_lines table, one row per sales order
// riding a load
type LoadLineModel struct {
	ID            uint       `gorm:"column:id;primaryKey;autoIncrement"`
	LoadID        uint       `gorm:"column:load_id;index;not null"`
	Load          *LoadModel `gorm:"foreignKey:LoadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SoNum         string     `gorm:"column:so_num;index;not null"`
	StopSeq       int        `gorm:"column:stop_seq"`
	State         string     `gorm:"column:state;size:2"`
	Zip           string     `gorm:"column:zip;size:10"`
	City          string     `gorm:"column:city"`
	CustName      string     `gorm:"column:cust_name"`
	Units         int        `gorm:"column:units"`
	TotalLengthFt float64    `gorm:"column:total_length_ft"`
	DueDate       *time.Time `gorm:"column:due_date"`
}

func (LoadLineModel) TableName() string {
	return "load_lines"
}

// RouteCacheModel represents the route_cache table. Array fields are JSON
// stored as text (SQLite compatible).
type RouteCacheModel struct {
	CacheKey   string    `gorm:"column:cache_key;primaryKey"`
	Provider   string    `gorm:"column:provider;size:32"`
	Profile    string    `gorm:"column:profile;size:32"`
	Signatures string    `gorm:"column:signatures;type:text"`
	LegMiles   string    `gorm:"column:leg_miles;type:text"`
	TotalMiles float64   `gorm:"column:total_miles"`
	Geometry   string    `gorm:"column:geometry;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"column:expires_at;index"`
}

func (RouteCacheModel) TableName() string {
	return "route_cache"
}

// LoadSequenceModel represents the load_sequences table holding the
// per-(plant, year) load number counter
type LoadSequenceModel struct {
	Plant   string `gorm:"column:plant;primaryKey;size:2"`
	Year    int    `gorm:"column:year;primaryKey"`
	NextSeq int    `gorm:"column:next_seq;not null;default:1"`
}

func (LoadSequenceModel) TableName() string {
	return "load_sequences"
}
