package model

import (
	"time"

	"github.com/uptrace/bun"
)

// TabularRow is one validated line of an uploaded equipment export.
type TabularRow struct {
	Type        string
	Flowrate    float64
	Pressure    float64
	Temperature float64
}

// Summary is the full result of one aggregation run. TypeDistribution is only
// ever returned to the submitter and never persisted.
type Summary struct {
	TotalItems       int           `json:"total_items"`
	AvgFlowrate      float64       `json:"avg_flowrate"`
	AvgPressure      float64       `json:"avg_pressure"`
	AvgTemperature   float64       `json:"avg_temperature"`
	TypeDistribution *Distribution `json:"type_distribution"`
}

// SummaryRecord is the persisted scalar subset of a Summary.
type SummaryRecord struct {
	bun.BaseModel `bun:"summary_records,alias:sr"`

	ID             int64     `bun:",pk,autoincrement" json:"id"`
	UploadedAt     time.Time `bun:"uploaded_at,notnull" json:"uploaded_at"`
	TotalItems     int       `bun:"total_items,notnull" json:"total_items"`
	AvgFlowrate    float64   `bun:"avg_flowrate,notnull" json:"avg_flowrate"`
	AvgPressure    float64   `bun:"avg_pressure,notnull" json:"avg_pressure"`
	AvgTemperature float64   `bun:"avg_temperature,notnull" json:"avg_temperature"`
}

// SummaryCreatedEvent is published once a summary has been persisted.
type SummaryCreatedEvent struct {
	RecordID    int64          `json:"record_id"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	PayloadHash string         `json:"payload_hash"`
	Summary     *Summary       `json:"summary"`
	Extra       map[string]any `json:"extra,omitempty"`
}
