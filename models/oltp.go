package models

import (
	"time"
)

// DeliveryOLTP представляет доставку в исходной OLTP базе данных
// Одна строка - одна доставленная посылка, соединенная с данными
// о рейсе, водителе, маршруте и транспортном средстве
type DeliveryOLTP struct {
	VehicleID              int
	DriverID               int
	RouteID                int
	DeliveryID             int
	TripID                 int
	TrackingNumber         string
	PackageWeightKg        float64
	DistanceKm             float64
	FuelConsumedLiters     float64
	DeliveredDatetime      time.Time
	DeliveryStatus         string
	ScheduledDatetime      time.Time
	DepartureDatetime      time.Time
	EstimatedDurationHours float64
	TollCost               float64
	RecipientSignature     bool
	ArrivalDatetime        time.Time
	CustomerName           string
	DestinationCity        string
	LicensePlate           string
	DriverFullName         string
	DriverLicenseNumber    string
}

// ExtractedData содержит данные, извлечённые из OLTP
type ExtractedData struct {
	Deliveries []DeliveryOLTP

	// Границы окна извлечения [WindowStart, WindowEnd)
	WindowStart time.Time
	WindowEnd   time.Time
}
