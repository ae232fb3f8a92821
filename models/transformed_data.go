package models

// TransformedData содержит трансформированные данные для загрузки в хранилище
type TransformedData struct {
	// Доставки, прошедшие проверки качества и обогащённые метриками
	Deliveries []EnrichedDelivery

	// Количество строк, отброшенных проверками качества
	QualityRejected int
}
