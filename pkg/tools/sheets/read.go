package sheets

import (
	"context"

	"github.com/go-viper/mapstructure/v2"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

func readDescriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        ReadToolName,
		Description: "Reads values from a Google Sheet.",
		Inputs: []tool.InputParam{
			{Name: "spreadsheet_id", Description: "The ID of the spreadsheet.", Type: "string", Required: true},
			{Name: "range", Description: "The A1 notation of the range to read (e.g., 'Sheet1!A1:B5').", Type: "string", Required: true},
			{Name: "major_dimension", Description: "ROWS or COLUMNS for result. Default: ROWS.", Type: "string", Required: false},
			{Name: "value_render_option", Description: "How values are rendered (e.g., FORMATTED_VALUE). Default: FORMATTED_VALUE.", Type: "string", Required: false},
			{Name: "date_time_render_option", Description: "How date/time is rendered (e.g., SERIAL_NUMBER). Default: SERIAL_NUMBER.", Type: "string", Required: false},
		},
		Output: tool.OutputSchema{
			Type:        "object",
			Description: "The data read from the sheet.",
			Properties: map[string]interface{}{
				"spreadsheet_id":  map[string]interface{}{"type": "string", "description": "ID of the spreadsheet."},
				"range":           map[string]interface{}{"type": "string", "description": "The A1 range that was read."},
				"major_dimension": map[string]interface{}{"type": "string", "description": "Major dimension of the values (ROWS or COLUMNS)."},
				"values":          map[string]interface{}{"type": "array", "description": "The data read from the sheet as a list of rows (or columns if major_dimension is COLUMNS)."},
			},
		},
	}
}

type readInputs struct {
	SpreadsheetID        string `mapstructure:"spreadsheet_id"`
	Range                string `mapstructure:"range"`
	MajorDimension       string `mapstructure:"major_dimension"`
	ValueRenderOption    string `mapstructure:"value_render_option"`
	DateTimeRenderOption string `mapstructure:"date_time_render_option"`
}

func (s *Service) executeRead(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
	client := s.ready(ctx)
	if client == nil {
		return tool.Failure("Tool error: Google Sheets client not initialized.")
	}

	var in readInputs
	if err := mapstructure.Decode(inputs, &in); err != nil {
		return tool.Failure("Invalid input for read: %s", err.Error())
	}
	if in.SpreadsheetID == "" || in.Range == "" {
		return tool.Failure("Invalid input for read: 'spreadsheet_id' and 'range' are required.")
	}

	s.logger.Info().
		Str("spreadsheet_id", in.SpreadsheetID).
		Str("range", in.Range).
		Msg("Reading values from sheet")

	result, err := client.Read(ctx, in.SpreadsheetID, in.Range, in.MajorDimension, in.ValueRenderOption, in.DateTimeRenderOption)
	if err != nil {
		s.logger.Error().Err(err).Str("spreadsheet_id", in.SpreadsheetID).Msg("Sheet read failed")
		return tool.Failure("API error (read): %s", err.Error())
	}

	if len(result.Values) == 0 {
		return tool.Failure("Empty spreadsheet data")
	}
	if !hasMeaningfulData(result.Values) {
		return tool.Failure(
			"No meaningful data found in spreadsheet range. Check: "+
				"1. Range includes sheet name (e.g., 'Sheet1!A1:Z100')\n"+
				"2. Cells contain non-empty values\n"+
				"3. Range contains actual data (current range: %s)", in.Range)
	}

	return tool.Success(result)
}

// hasMeaningfulData reports whether any cell holds something other than an
// empty or whitespace-only value.
func hasMeaningfulData(values [][]interface{}) bool {
	for _, row := range values {
		for _, cell := range row {
			switch v := cell.(type) {
			case nil:
				continue
			case string:
				if v != "" && v != " " {
					return true
				}
			default:
				return true
			}
		}
	}
	return false
}
