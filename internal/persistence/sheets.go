package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/spec-kit/mileage-skill/internal/config"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

const sheetsSource = "google sheets"

// RangeReader fetches a rectangular block of cells. Rows may be ragged:
// trailing empty cells are omitted.
type RangeReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rangeExpr string) ([][]string, error)
}

// Sheets reads ranges through the Sheets v4 API using a service account.
type Sheets struct {
	credentials string
	logger      *zap.Logger

	mu  sync.Mutex
	svc *sheets.Service
}

// NewSheets prepares a reader. The API client is built on first use so a
// missing key only fails lookups, not startup.
func NewSheets(cfg config.SheetsConfig, logger *zap.Logger) *Sheets {
	if cfg.ServiceAccountKey == "" {
		logger.Warn("GOOGLE_SERVICE_ACCOUNT_KEY not provided; spreadsheet lookups will fail")
	}
	return &Sheets{credentials: cfg.ServiceAccountKey, logger: logger}
}

// ReadRange implements RangeReader.
func (s *Sheets) ReadRange(ctx context.Context, spreadsheetID, rangeExpr string) ([][]string, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	res, err := svc.Spreadsheets.Values.Get(spreadsheetID, rangeExpr).Context(ctx).Do()
	if err != nil {
		return nil, classifySheetsError(err)
	}

	rows := toStringRows(res.Values)
	s.logger.Debug("sheet range fetched",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("range", rangeExpr),
		zap.Int("rows", len(rows)))
	return rows, nil
}

func (s *Sheets) service(ctx context.Context) (*sheets.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil {
		return s.svc, nil
	}
	if s.credentials == "" {
		return nil, apperrors.NewUpstreamAuth(sheetsSource, errors.New("GOOGLE_SERVICE_ACCOUNT_KEY is not set"))
	}
	if !json.Valid([]byte(s.credentials)) {
		return nil, apperrors.NewUpstreamAuth(sheetsSource, errors.New("GOOGLE_SERVICE_ACCOUNT_KEY is not valid JSON"))
	}

	// The client outlives the request that happened to build it.
	svc, err := sheets.NewService(context.WithoutCancel(ctx),
		option.WithCredentialsJSON([]byte(s.credentials)),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, apperrors.NewUpstreamAuth(sheetsSource, err)
	}
	s.svc = svc
	return svc, nil
}

func classifySheetsError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.NewUpstreamAuth(sheetsSource, err)
		}
	}
	return apperrors.NewUpstreamUnavailable(sheetsSource, err)
}

func toStringRows(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, raw := range values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			switch v := cell.(type) {
			case nil:
				row[i] = ""
			case string:
				row[i] = v
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
