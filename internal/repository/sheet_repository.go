package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/mileage-skill/internal/config"
	"github.com/spec-kit/mileage-skill/internal/persistence"
)

// RosterRepository returns the roster sheet rows used for authentication.
type RosterRepository interface {
	ListRows(ctx context.Context) ([][]string, error)
}

// PointsRepository returns the points sheet rows.
type PointsRepository interface {
	ListRows(ctx context.Context) ([][]string, error)
}

type sheetRepository struct {
	reader        persistence.RangeReader
	spreadsheetID string
	rangeExpr     string
}

// NewRosterRepository reads the configured roster range on every call.
func NewRosterRepository(reader persistence.RangeReader, cfg config.SheetsConfig) RosterRepository {
	return &sheetRepository{reader: reader, spreadsheetID: cfg.RosterSpreadsheetID, rangeExpr: cfg.RosterRange}
}

// NewPointsRepository reads the configured points range on every call.
func NewPointsRepository(reader persistence.RangeReader, cfg config.SheetsConfig) PointsRepository {
	return &sheetRepository{reader: reader, spreadsheetID: cfg.PointsSpreadsheetID, rangeExpr: cfg.PointsRange}
}

func (r *sheetRepository) ListRows(ctx context.Context) ([][]string, error) {
	rows, err := r.reader.ReadRange(ctx, r.spreadsheetID, r.rangeExpr)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.rangeExpr, err)
	}
	return rows, nil
}
