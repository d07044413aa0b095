package dataset

import (
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/vzerr"
)

// Aggregate reduces rows into a Summary. It has no side effects; the result
// depends only on the multiset of rows, except for the first-occurrence order
// kept by the distribution.
func Aggregate(rows []model.TabularRow) (*model.Summary, error) {
	if len(rows) == 0 {
		return nil, vzerr.ErrEmptyDataset
	}

	var flowrate, pressure, temperature float64
	distribution := model.NewDistribution()
	for _, row := range rows {
		flowrate += row.Flowrate
		pressure += row.Pressure
		temperature += row.Temperature
		distribution.Add(row.Type, 1)
	}

	n := float64(len(rows))
	return &model.Summary{
		TotalItems:       len(rows),
		AvgFlowrate:      flowrate / n,
		AvgPressure:      pressure / n,
		AvgTemperature:   temperature / n,
		TypeDistribution: distribution,
	}, nil
}
