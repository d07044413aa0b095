package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/vzerr"
)

const (
	ColumnType        = "Type"
	ColumnFlowrate    = "Flowrate"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
)

// RequiredColumns are matched exactly and case-sensitively against the header.
var RequiredColumns = []string{ColumnType, ColumnFlowrate, ColumnPressure, ColumnTemperature}

// Validate checks that t carries every required column and that every value
// in them is usable, then returns the typed rows. It fails with a schema error
// before any row is converted when a column is missing.
func Validate(t *Table) ([]model.TabularRow, error) {
	missing := lo.Filter(RequiredColumns, func(name string, _ int) bool {
		_, ok := t.Column(name)
		return !ok
	})
	if len(missing) > 0 {
		return nil, vzerr.ErrSchema.
			Msg("CSV must contain: %s columns (missing: %s)", strings.Join(RequiredColumns, ", "), strings.Join(missing, ", ")).
			WithExtras(vzerr.Extras{"missing": missing})
	}

	typeIdx, _ := t.Column(ColumnType)
	flowIdx, _ := t.Column(ColumnFlowrate)
	pressureIdx, _ := t.Column(ColumnPressure)
	tempIdx, _ := t.Column(ColumnTemperature)

	rows := make([]model.TabularRow, 0, len(t.Records))
	for i, record := range t.Records {
		line := t.Line(i)

		label := record[typeIdx]
		if strings.TrimSpace(label) == "" {
			return nil, vzerr.ErrSchema.Msg("%s is empty at line %d", ColumnType, line)
		}

		flowrate, err := number(record[flowIdx], ColumnFlowrate, line)
		if err != nil {
			return nil, err
		}
		pressure, err := number(record[pressureIdx], ColumnPressure, line)
		if err != nil {
			return nil, err
		}
		temperature, err := number(record[tempIdx], ColumnTemperature, line)
		if err != nil {
			return nil, err
		}

		rows = append(rows, model.TabularRow{
			Type:        label,
			Flowrate:    flowrate,
			Pressure:    pressure,
			Temperature: temperature,
		})
	}

	return rows, nil
}

func number(cell, column string, line int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, vzerr.ErrSchema.
			Msg("%s must be a finite number at line %d, got %q", column, line, cell).
			WithExtras(vzerr.Extras{"column": column, "line": line})
	}
	return v, nil
}
