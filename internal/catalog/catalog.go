// Package catalog is the composition point for the tool server: it knows
// which tool backends exist and registers them in a fixed order.
package catalog

import (
	"github.com/rs/zerolog"

	"github.com/toolgate-io/toolgate/internal/config"
	"github.com/toolgate-io/toolgate/pkg/tool"
	"github.com/toolgate-io/toolgate/pkg/tools/sheets"
	"github.com/toolgate-io/toolgate/pkg/tools/websearch"
)

// Build creates the registry and registers every built-in tool. Registration
// order is the order tools are listed to clients. A registration error is
// fatal; it means a descriptor is structurally broken.
func Build(cfg *config.Config, logger zerolog.Logger) (*tool.Registry, error) {
	registry := tool.NewRegistry(logger)

	search := websearch.New(websearch.Config{
		APIKey: cfg.Tools.Tavily.APIKey,
	}, logger)
	if err := registry.Register(tool.Registration{
		Name:        websearch.ToolName,
		Descriptor:  search.Descriptor(),
		Execute:     search.Execute,
		Initializer: search.Initialize,
	}); err != nil {
		return nil, err
	}

	sheetSvc := sheets.NewService(sheets.Config{
		CredentialsFile: cfg.Tools.Sheets.CredentialsFile,
	}, logger)
	for _, reg := range sheetSvc.Registrations() {
		if err := registry.Register(reg); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
