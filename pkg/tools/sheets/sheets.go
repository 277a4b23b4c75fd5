// Package sheets provides the spreadsheet tools backed by the Google Sheets
// API. One authenticated service is shared by the append, read, and update
// tools through a single idempotent initializer.
package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

// Tool registration keys
const (
	AppendToolName = "google_sheets_append"
	ReadToolName   = "google_sheets_read"
	UpdateToolName = "google_sheets_update"
)

const spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// Config holds the spreadsheet backend configuration. With an empty
// CredentialsFile the client falls back to application default credentials.
type Config struct {
	CredentialsFile string
}

// UpdateSummary mirrors the update statistics returned by the Sheets API
type UpdateSummary struct {
	UpdatedRange   string `json:"updatedRange,omitempty"`
	UpdatedRows    int64  `json:"updatedRows,omitempty"`
	UpdatedColumns int64  `json:"updatedColumns,omitempty"`
	UpdatedCells   int64  `json:"updatedCells,omitempty"`
}

// AppendResult is the payload of a successful append
type AppendResult struct {
	SpreadsheetID string         `json:"spreadsheet_id"`
	TableRange    string         `json:"table_range,omitempty"`
	Updates       *UpdateSummary `json:"updates,omitempty"`
}

// ReadResult is the payload of a successful read
type ReadResult struct {
	SpreadsheetID  string          `json:"spreadsheet_id"`
	Range          string          `json:"range"`
	MajorDimension string          `json:"major_dimension,omitempty"`
	Values         [][]interface{} `json:"values"`
}

// UpdateResult is the payload of a successful update
type UpdateResult struct {
	SpreadsheetID  string `json:"spreadsheet_id"`
	UpdatedRange   string `json:"updated_range"`
	UpdatedRows    int64  `json:"updated_rows"`
	UpdatedColumns int64  `json:"updated_columns"`
	UpdatedCells   int64  `json:"updated_cells"`
}

// valuesClient abstracts the Sheets values API so executors can be tested
// against a fake backend.
type valuesClient interface {
	Append(ctx context.Context, spreadsheetID, valueRange string, values [][]interface{}, valueInputOption, insertDataOption string) (*AppendResult, error)
	Read(ctx context.Context, spreadsheetID, valueRange, majorDimension, valueRenderOption, dateTimeRenderOption string) (*ReadResult, error)
	Update(ctx context.Context, spreadsheetID, valueRange string, values [][]interface{}, valueInputOption string) (*UpdateResult, error)
}

// Service owns the shared spreadsheet client and exposes the three tools.
// The client handle is lazily initialized and mutex-guarded so concurrent
// first use is safe.
type Service struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	client valuesClient
}

// NewService creates the spreadsheet tool service. The API client is not
// created until Initialize runs.
func NewService(cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "sheets-tools").Logger(),
	}
}

// Initialize builds the authenticated Sheets client. Idempotent: once a
// client exists, later calls return immediately.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}

	opts := []option.ClientOption{option.WithScopes(spreadsheetsScope)}
	if s.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.CredentialsFile))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	s.client = &googleClient{svc: svc}
	s.logger.Info().Msg("Google Sheets client initialized")
	return nil
}

// Registrations returns the registrations for all spreadsheet tools. They
// all reference the same initializer, flagged shared so it is recorded once.
func (s *Service) Registrations() []tool.Registration {
	return []tool.Registration{
		{
			Name:              AppendToolName,
			Descriptor:        appendDescriptor(),
			Execute:           s.executeAppend,
			Initializer:       s.Initialize,
			SharedInitializer: true,
		},
		{
			Name:              ReadToolName,
			Descriptor:        readDescriptor(),
			Execute:           s.executeRead,
			Initializer:       s.Initialize,
			SharedInitializer: true,
		},
		{
			Name:              UpdateToolName,
			Descriptor:        updateDescriptor(),
			Execute:           s.executeUpdate,
			Initializer:       s.Initialize,
			SharedInitializer: true,
		},
	}
}

// ready returns the client, attempting a lazy initialization if the startup
// pass failed. A nil client means the tool must report a failure outcome.
func (s *Service) ready(ctx context.Context) valuesClient {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client != nil {
		return client
	}

	if err := s.Initialize(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Sheets client not initialized")
		return nil
	}

	s.mu.Lock()
	client = s.client
	s.mu.Unlock()
	return client
}

// googleClient implements valuesClient against the real Sheets API
type googleClient struct {
	svc *sheetsapi.Service
}

func (g *googleClient) Append(ctx context.Context, spreadsheetID, valueRange string, values [][]interface{}, valueInputOption, insertDataOption string) (*AppendResult, error) {
	call := g.svc.Spreadsheets.Values.
		Append(spreadsheetID, valueRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).
		Context(ctx)
	if insertDataOption != "" {
		call = call.InsertDataOption(insertDataOption)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}

	result := &AppendResult{SpreadsheetID: resp.SpreadsheetId}
	if resp.Updates != nil {
		result.TableRange = resp.Updates.UpdatedRange
		result.Updates = &UpdateSummary{
			UpdatedRange:   resp.Updates.UpdatedRange,
			UpdatedRows:    resp.Updates.UpdatedRows,
			UpdatedColumns: resp.Updates.UpdatedColumns,
			UpdatedCells:   resp.Updates.UpdatedCells,
		}
	}
	return result, nil
}

func (g *googleClient) Read(ctx context.Context, spreadsheetID, valueRange, majorDimension, valueRenderOption, dateTimeRenderOption string) (*ReadResult, error) {
	call := g.svc.Spreadsheets.Values.Get(spreadsheetID, valueRange).Context(ctx)
	if majorDimension != "" {
		call = call.MajorDimension(majorDimension)
	}
	if valueRenderOption != "" {
		call = call.ValueRenderOption(valueRenderOption)
	}
	if dateTimeRenderOption != "" {
		call = call.DateTimeRenderOption(dateTimeRenderOption)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, err
	}

	return &ReadResult{
		SpreadsheetID:  spreadsheetID,
		Range:          resp.Range,
		MajorDimension: resp.MajorDimension,
		Values:         resp.Values,
	}, nil
}

func (g *googleClient) Update(ctx context.Context, spreadsheetID, valueRange string, values [][]interface{}, valueInputOption string) (*UpdateResult, error) {
	resp, err := g.svc.Spreadsheets.Values.
		Update(spreadsheetID, valueRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	return &UpdateResult{
		SpreadsheetID:  resp.SpreadsheetId,
		UpdatedRange:   resp.UpdatedRange,
		UpdatedRows:    resp.UpdatedRows,
		UpdatedColumns: resp.UpdatedColumns,
		UpdatedCells:   resp.UpdatedCells,
	}, nil
}
