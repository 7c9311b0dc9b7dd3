package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/lineitems/pkg/gdocai"
	"github.com/gardar/lineitems/pkg/review"
	"github.com/gardar/lineitems/pkg/rowassoc"
)

type yamlConfig struct {
	DocumentAI struct {
		ProjectID   string `yaml:"project_id"`
		Location    string `yaml:"location"`
		ProcessorID string `yaml:"processor_id"`
	} `yaml:"document_ai"`

	LineItemFields []string `yaml:"line_item_fields"`
	RowTolerance   float64  `yaml:"row_tolerance"`
	Unmatched      string   `yaml:"unmatched"`
	Concurrency    int      `yaml:"concurrency"`
	LogLevel       string   `yaml:"log_level"`

	Result struct {
		ModelName string `yaml:"model_name"`
		Final     bool   `yaml:"final"`
	} `yaml:"result"`

	Review []review.Rule `yaml:"review"`
}

// config is the validated form of yamlConfig
type config struct {
	docai          *gdocai.Config
	lineItemFields []string
	rowTolerance   float64
	unmatched      rowassoc.UnmatchedPolicy
	concurrency    int
	logLevel       slog.Level
	modelName      string
	finalResult    bool
	review         []review.Rule
}

// loadConfig reads a YAML file and converts it to the run configuration
func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(yc.LineItemFields) == 0 {
		return nil, errors.New("line_item_fields must list at least one label")
	}
	policy, err := rowassoc.ParseUnmatchedPolicy(yc.Unmatched)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if yc.LogLevel != "" {
		if err := level.UnmarshalText([]byte(strings.TrimSpace(yc.LogLevel))); err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", yc.LogLevel, err)
		}
	}

	return &config{
		docai: &gdocai.Config{
			ProjectID:   yc.DocumentAI.ProjectID,
			Location:    yc.DocumentAI.Location,
			ProcessorID: yc.DocumentAI.ProcessorID,
		},
		lineItemFields: yc.LineItemFields,
		rowTolerance:   yc.RowTolerance,
		unmatched:      policy,
		concurrency:    yc.Concurrency,
		logLevel:       level,
		modelName:      yc.Result.ModelName,
		finalResult:    yc.Result.Final,
		review:         yc.Review,
	}, nil
}

func (c *config) assocOptions(log *slog.Logger) []rowassoc.Option {
	return []rowassoc.Option{
		rowassoc.WithRowTolerance(c.rowTolerance),
		rowassoc.WithUnmatchedPolicy(c.unmatched),
		rowassoc.WithLogger(log),
	}
}
