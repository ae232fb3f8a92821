package models

import (
	"time"
)

// OpenEndedValidTo возвращает дату-маркер "действует бессрочно"
// для текущих версий записей SCD
func OpenEndedValidTo() time.Time {
	return time.Date(2262, 4, 11, 0, 0, 0, 0, time.UTC)
}

// EnrichedDelivery представляет доставку, обогащённую производными метриками
// Создается трансформатором: одна запись на каждую доставку, прошедшую
// проверки качества данных
type EnrichedDelivery struct {
	DeliveryOLTP

	// Производные метрики
	DeliveryTimeMinutes      float64
	DelayMinutes             float64
	IsOnTime                 bool
	TripDurationHours        float64
	DeliveriesInTrip         int
	DeliveriesPerHour        float64
	FuelEfficiencyKmPerLiter float64
	CostPerDelivery          float64
	RevenuePerDelivery       float64

	// Поля версионирования SCD
	ValidFrom time.Time
	ValidTo   time.Time
	IsCurrent bool
}

// CustomerDimension представляет измерение клиентов в хранилище
type CustomerDimension struct {
	CustomerKey       int
	CustomerName      string
	CustomerType      string
	City              string
	FirstDeliveryDate time.Time
	TotalDeliveries   int
	CustomerCategory  string
	IsCurrent         bool
	ValidFrom         time.Time
	ValidTo           time.Time
}

// DriverDimension представляет измерение водителей в хранилище (SCD Type 2)
type DriverDimension struct {
	DriverKey     int
	DriverID      int
	FullName      string
	LicenseNumber string
	Status        string
	IsCurrent     bool
	ValidFrom     time.Time
	ValidTo       time.Time
}

// VehicleDimension представляет измерение транспортных средств в хранилище (SCD Type 2)
type VehicleDimension struct {
	VehicleKey   int
	VehicleID    int
	LicensePlate string
	Status       string
	IsCurrent    bool
	ValidFrom    time.Time
	ValidTo      time.Time
}

// RouteDimension представляет измерение маршрутов в хранилище
type RouteDimension struct {
	RouteKey               int
	RouteID                int
	DestinationCity        string
	DistanceKm             float64
	EstimatedDurationHours float64
	TollCost               float64
	IsCurrent              bool
	ValidFrom              time.Time
	ValidTo                time.Time
}

// DimensionKeys содержит соответствия натуральных ключей суррогатным
// для всех измерений, разрешённых для текущего батча
type DimensionKeys struct {
	Customers map[string]int
	Drivers   map[int]int
	Vehicles  map[int]int
	Routes    map[int]int
}

// NewDimensionKeys создает пустой набор соответствий ключей
func NewDimensionKeys() *DimensionKeys {
	return &DimensionKeys{
		Customers: make(map[string]int),
		Drivers:   make(map[int]int),
		Vehicles:  make(map[int]int),
		Routes:    make(map[int]int),
	}
}

// DeliveryFact представляет факт доставки в хранилище
// Строки фактов только добавляются и никогда не обновляются
type DeliveryFact struct {
	DateKey                  int
	ScheduledTimeKey         int
	DeliveredTimeKey         int
	VehicleKey               int
	DriverKey                int
	RouteKey                 int
	CustomerKey              int
	DeliveryID               int
	TripID                   int
	TrackingNumber           string
	PackageWeightKg          float64
	DistanceKm               float64
	FuelConsumedLiters       float64
	DeliveryTimeMinutes      float64
	DelayMinutes             float64
	DeliveriesPerHour        float64
	FuelEfficiencyKmPerLiter float64
	CostPerDelivery          float64
	RevenuePerDelivery       float64
	IsOnTime                 bool
	IsDamaged                bool
	HasSignature             bool
	DeliveryStatus           string
	ETLBatchID               int64
}

// DailyTotals представляет итоговую строку за день для отчётности
// Ключ: (DateUpdate, ETLBatchID)
type DailyTotals struct {
	DateUpdate                  time.Time
	ETLBatchID                  int64
	TotalDeliveries             int
	TotalVehicles               int
	TotalDrivers                int
	TotalRoutes                 int
	TotalCustomers              int
	TotalPackageWeightKg        float64
	TotalDistanceKm             float64
	TotalFuelConsumedLiters     float64
	AvgDeliveryTimeMinutes      float64
	AvgDelayMinutes             float64
	AvgDeliveriesPerHour        float64
	AvgFuelEfficiencyKmPerLiter float64
	TotalCostPerDelivery        float64
	TotalRevenuePerDelivery     float64
	OnTimePercentage            float64
}
