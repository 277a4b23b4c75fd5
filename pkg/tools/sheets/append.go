package sheets

import (
	"context"

	"github.com/go-viper/mapstructure/v2"

	"github.com/toolgate-io/toolgate/pkg/tool"
)

func appendDescriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        AppendToolName,
		Description: "Appends values to a Google Sheet. Finds a table in the specified range and appends data after the last row.",
		Inputs: []tool.InputParam{
			{Name: "spreadsheet_id", Description: "The ID of the spreadsheet.", Type: "string", Required: true},
			{Name: "range", Description: "The A1 notation of a range (e.g., 'Sheet1!A1:C2' or 'Sheet1'). Values are appended after the last row of the table found in this range.", Type: "string", Required: true},
			{Name: "values", Description: "A list of rows to append. Each row is a list of cell values (e.g., [['data1', 'data2'], ['data3', 'data4']]).", Type: "array", ItemsType: "array", Required: true},
			{Name: "value_input_option", Description: "How input data is interpreted. Options: 'RAW', 'USER_ENTERED'. Default: 'USER_ENTERED'.", Type: "string", Required: false},
			{Name: "insert_data_option", Description: "How data is inserted. Options: 'OVERWRITE', 'INSERT_ROWS'. Default: appends after table, may overwrite.", Type: "string", Required: false},
		},
		Output: tool.OutputSchema{
			Type:        "object",
			Description: "Result of the append operation.",
			Properties: map[string]interface{}{
				"spreadsheet_id": map[string]interface{}{"type": "string", "description": "ID of the spreadsheet."},
				"table_range":    map[string]interface{}{"type": "string", "description": "The range the data was appended to (e.g., 'Sheet1!A1:D5')."},
				"updates":        map[string]interface{}{"type": "object", "description": "Details of the update (updatedCells, updatedRange, etc.)."},
			},
		},
	}
}

type appendInputs struct {
	SpreadsheetID    string          `mapstructure:"spreadsheet_id"`
	Range            string          `mapstructure:"range"`
	Values           [][]interface{} `mapstructure:"values"`
	ValueInputOption string          `mapstructure:"value_input_option"`
	InsertDataOption string          `mapstructure:"insert_data_option"`
}

func (s *Service) executeAppend(ctx context.Context, inputs map[string]interface{}) tool.Outcome {
	client := s.ready(ctx)
	if client == nil {
		return tool.Failure("Tool error: Google Sheets client not initialized.")
	}

	var in appendInputs
	if err := mapstructure.Decode(inputs, &in); err != nil {
		return tool.Failure("Invalid input for append: %s", err.Error())
	}
	if in.SpreadsheetID == "" || in.Range == "" || len(in.Values) == 0 {
		return tool.Failure("Invalid input for append: 'spreadsheet_id', 'range' and 'values' are required.")
	}
	if in.ValueInputOption == "" {
		in.ValueInputOption = "USER_ENTERED"
	}

	s.logger.Info().
		Str("spreadsheet_id", in.SpreadsheetID).
		Str("range", in.Range).
		Int("rows", len(in.Values)).
		Msg("Appending values to sheet")

	result, err := client.Append(ctx, in.SpreadsheetID, in.Range, in.Values, in.ValueInputOption, in.InsertDataOption)
	if err != nil {
		s.logger.Error().Err(err).Str("spreadsheet_id", in.SpreadsheetID).Msg("Sheet append failed")
		return tool.Failure("API error (append): %s", err.Error())
	}

	return tool.Success(result)
}
