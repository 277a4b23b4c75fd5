package sheets

import (
	"context"

	"github.com/go-viper/mapstructure/v2"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

func updateDescriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        UpdateToolName,
		Description: "Updates (writes) values to a specific range in a Google Sheet.",
		Inputs: []tool.InputParam{
			{Name: "spreadsheet_id", Description: "The ID of the spreadsheet.", Type: "string", Required: true},
			{Name: "range", Description: "The A1 notation of the range to write (e.g., 'Sheet1!A1:B2').", Type: "string", Required: true},
			{Name: "values", Description: "A list of rows to write. Each row is a list of cell values (e.g., [['newA1', 'newB1'], ['newA2', 'newB2']]).", Type: "array", ItemsType: "array", Required: true},
			{Name: "value_input_option", Description: "How input data is interpreted. Options: 'RAW', 'USER_ENTERED'. Default: 'USER_ENTERED'.", Type: "string", Required: false},
		},
		Output: tool.OutputSchema{
			Type:        "object",
			Description: "Result of the update operation.",
			Properties: map[string]interface{}{
				"spreadsheet_id":  map[string]interface{}{"type": "string", "description": "ID of the spreadsheet."},
				"updated_range":   map[string]interface{}{"type": "string", "description": "The A1 range that was updated."},
				"updated_rows":    map[string]interface{}{"type": "integer", "description": "Number of rows updated."},
				"updated_columns": map[string]interface{}{"type": "integer", "description": "Number of columns updated."},
				"updated_cells":   map[string]interface{}{"type": "integer", "description": "Total cells updated."},
			},
		},
	}
}

type updateInputs struct {
	SpreadsheetID    string          `mapstructure:"spreadsheet_id"`
	Range            string          `mapstructure:"range"`
	Values           [][]interface{} `mapstructure:"values"`
	ValueInputOption string          `mapstructure:"value_input_option"`
}

func (s *Service) executeUpdate(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
	client := s.ready(ctx)
	if client == nil {
		return tool.Failure("Tool error: Google Sheets client not initialized.")
	}

	var in updateInputs
	if err := mapstructure.Decode(inputs, &in); err != nil {
		return tool.Failure("Invalid input for update: %s", err.Error())
	}
	if in.SpreadsheetID == "" || in.Range == "" || len(in.Values) == 0 {
		return tool.Failure("Invalid input for update: 'spreadsheet_id', 'range' and 'values' are required.")
	}
	if in.ValueInputOption == "" {
		in.ValueInputOption = "USER_ENTERED"
	}

	s.logger.Info().
		Str("spreadsheet_id", in.SpreadsheetID).
		Str("range", in.Range).
		Int("rows", len(in.Values)).
		Msg("Updating values in sheet")

	result, err := client.Update(ctx, in.SpreadsheetID, in.Range, in.Values, in.ValueInputOption)
	if err != nil {
		s.logger.Error().Err(err).Str("spreadsheet_id", in.SpreadsheetID).Msg("Sheet update failed")
		return tool.Failure("API error (update): %s", err.Error())
	}

	return tool.Success(result)
}
