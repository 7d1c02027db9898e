// =============================================================================
// Monthly Order Report - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and channel-specific
// configurations.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Channel Configs (configs/*.yaml): Channel-specific schema mappings
//
// ARCHITECTURE:
//   The configuration system is designed to be:
//   - Modular: Each sales channel has its own configuration file
//   - Extensible: New channels can be added without code changes
//   - Validated: All configurations are validated on load
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CANONICAL FIELD NAMES
// =============================================================================
// Every channel export is mapped onto this schema. Channel configs declare,
// per canonical field, an ordered list of acceptable source column names.

const (
	FieldOrderID       = "order_id"
	FieldOrderDate     = "order_date"
	FieldCustomerName  = "customer_name"
	FieldProductName   = "product_name"
	FieldQuantity      = "quantity"
	FieldUnitPrice     = "unit_price"
	FieldOrderTotal    = "order_total"
	FieldOrderDiscount = "order_discount"
	FieldSKU           = "sku"
	FieldPhone         = "phone"
)

// CanonicalFields lists every canonical field in schema order. Iteration
// over alias maps goes through this list so that resolution output is
// deterministic run-to-run.
var CanonicalFields = []string{
	FieldOrderID,
	FieldOrderDate,
	FieldCustomerName,
	FieldProductName,
	FieldQuantity,
	FieldUnitPrice,
	FieldOrderTotal,
	FieldOrderDiscount,
	FieldSKU,
	FieldPhone,
}

// IsCanonicalField reports whether name is one of the canonical fields.
func IsCanonicalField(name string) bool {
	for _, f := range CanonicalFields {
		if f == name {
			return true
		}
	}
	return false
}

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory where channel order exports are placed.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where the generated report is placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is the directory where processed exports are moved.
	// Files are only moved here after a fully successful run.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ConfigsDir is the directory containing channel-specific configurations.
	// Each YAML file in this directory represents one sales channel.
	// Default: "./configs"
	ConfigsDir string `yaml:"configs_dir"`

	// =========================================================================
	// COST REFERENCE SETTINGS
	// =========================================================================

	// CostFile is the path to the cost reference workbook (product name,
	// SKU, unit cost). Required when any channel declares has_cost_data.
	CostFile string `yaml:"cost_file"`

	// CostSheet is the worksheet name inside CostFile.
	// Empty means the first sheet.
	CostSheet string `yaml:"cost_sheet"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ReportNameFormat defines the format of the report file name.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {month}     - The report month (YYYYMM, from the --month flag)
	//
	// Default: "monthly_report_{month}_{timestamp}.xlsx"
	ReportNameFormat string `yaml:"report_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of channels to process
	// concurrently. Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ArchiveOnSuccess determines whether input files are moved to the
	// archive after a successful run.
	// Default: true
	ArchiveOnSuccess bool `yaml:"archive_on_success"`
}

// =============================================================================
// CHANNEL CONFIGURATION STRUCTURE
// =============================================================================

// ChannelConfig holds the configuration for a specific sales channel.
// Each channel declares how to find its export file, which worksheet to
// read, and how its column names map onto the canonical schema.
type ChannelConfig struct {
	// ChannelName is the human-readable name of the channel.
	// It tags every line item and appears in sheet names and logs.
	ChannelName string `yaml:"channel_name"`

	// FilePattern is a glob pattern matched against file names in the
	// input directory to locate this channel's export.
	// Examples:
	//   - "*Shopify*Orders*.xlsx"
	//   - "*Pinkoi_orders*.xlsx"
	FilePattern string `yaml:"file_pattern"`

	// SheetName is the worksheet to read from the export workbook.
	// Empty means the first sheet. When the named sheet does not exist
	// the reader falls back to the first sheet.
	SheetName string `yaml:"sheet_name"`

	// HasCostData declares whether this channel's products appear in the
	// cost reference table. Channels without cost data report profit
	// equal to revenue and a 100% margin; that is a documented
	// approximation reflecting absent cost data, not zero cost.
	HasCostData bool `yaml:"has_cost_data"`

	// Columns maps each canonical field to an ordered list of acceptable
	// source column names. The first alias present in the export's header
	// row wins. A field with no matching alias is left unset; numeric
	// fields then default to 0 and string fields to empty.
	//
	// The phone field is special-cased: all present aliases are read and
	// the first non-empty value per row wins, because channel exports
	// split phone numbers across columns (e.g. "Billing Phone" / "Phone").
	Columns map[string][]string `yaml:"columns"`

	// RequiredFields lists canonical fields that must resolve to a source
	// column. A missing required field aborts the run before any output
	// is produced. order_id is always required, listed or not.
	RequiredFields []string `yaml:"required_fields"`

	// DateFormats is an ordered list of Go reference layouts tried when
	// parsing the order date column. Unparsable dates become the zero
	// time, never an error.
	DateFormats []string `yaml:"date_formats"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and validates it.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.ConfigsDir == "" {
		config.ConfigsDir = "./configs"
	}
	if config.ReportNameFormat == "" {
		config.ReportNameFormat = "monthly_report_{month}_{timestamp}.xlsx"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
}

// validateMainConfig checks the main configuration for invalid values.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if !strings.Contains(config.ReportNameFormat, ".xlsx") {
		return fmt.Errorf("report_name_format must produce an .xlsx file name, got %q", config.ReportNameFormat)
	}
	return nil
}

// LoadChannelConfigs loads all channel configurations from the configs
// directory. Every *.yaml / *.yml file in the directory is treated as one
// channel. The returned map is keyed by channel name.
func LoadChannelConfigs(configsDir string) (map[string]*ChannelConfig, error) {
	entries, err := os.ReadDir(configsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read configs directory: %w", err)
	}

	configs := make(map[string]*ChannelConfig)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		channelConfig, err := loadChannelConfig(filepath.Join(configsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to load channel config %s: %w", entry.Name(), err)
		}

		if _, exists := configs[channelConfig.ChannelName]; exists {
			return nil, fmt.Errorf("duplicate channel name %q in %s", channelConfig.ChannelName, entry.Name())
		}
		configs[channelConfig.ChannelName] = channelConfig
	}

	if len(configs) == 0 {
		return nil, fmt.Errorf("no channel configurations found in %s", configsDir)
	}

	return configs, nil
}

// loadChannelConfig loads a single channel configuration file.
func loadChannelConfig(filePath string) (*ChannelConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config ChannelConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyChannelConfigDefaults(&config)

	if err := validateChannelConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyChannelConfigDefaults sets default values for a channel configuration.
func applyChannelConfigDefaults(config *ChannelConfig) {
	if config.FilePattern == "" {
		config.FilePattern = "*.xlsx"
	}
	if len(config.DateFormats) == 0 {
		config.DateFormats = []string{
			"2006-01-02 15:04:05 -0700",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"2006/01/02",
			"1/2/2006",
			"01-02-06",
		}
	}

	// order_id must always be present in the source; everything else
	// degrades to zero values.
	hasOrderID := false
	for _, f := range config.RequiredFields {
		if f == FieldOrderID {
			hasOrderID = true
			break
		}
	}
	if !hasOrderID {
		config.RequiredFields = append(config.RequiredFields, FieldOrderID)
	}
}

// validateChannelConfig checks a channel configuration for invalid values.
func validateChannelConfig(config *ChannelConfig) error {
	if config.ChannelName == "" {
		return fmt.Errorf("channel_name is required")
	}
	for field := range config.Columns {
		if !IsCanonicalField(field) {
			return fmt.Errorf("unknown canonical field %q in columns", field)
		}
	}
	for _, field := range config.RequiredFields {
		if !IsCanonicalField(field) {
			return fmt.Errorf("unknown canonical field %q in required_fields", field)
		}
	}
	return nil
}
