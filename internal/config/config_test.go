package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
input_dir: ./exports
cost_file: ./costs.xlsx
max_concurrency: 2
archive_on_success: true
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./exports", cfg.InputDir)
	assert.Equal(t, "./costs.xlsx", cfg.CostFile)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.True(t, cfg.ArchiveOnSuccess)

	// Unset options fall back to defaults.
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "./input_archive", cfg.InputArchiveDir)
	assert.Equal(t, "./configs", cfg.ConfigsDir)
	assert.Equal(t, "monthly_report_{month}_{timestamp}.xlsx", cfg.ReportNameFormat)
}

func TestLoadMainConfigDefaultsOnEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.False(t, cfg.ArchiveOnSuccess)
}

func TestLoadMainConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadMainConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "input_dir: [unclosed")
	_, err = LoadMainConfig(bad)
	assert.Error(t, err)

	notXlsx := writeFile(t, dir, "name.yaml", `report_name_format: report.csv`)
	_, err = LoadMainConfig(notXlsx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_name_format")
}

func TestLoadChannelConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shopify.yaml", `
channel_name: Shopify
file_pattern: "*Shopify*.xlsx"
has_cost_data: true
columns:
  order_id: ["Name"]
  product_name: ["Lineitem name"]
required_fields:
  - product_name
`)
	writeFile(t, dir, "pinkoi.yml", `
channel_name: Pinkoi
sheet_name: 訂單明細
columns:
  order_id: ["訂單編號"]
`)
	writeFile(t, dir, "notes.txt", "ignored")

	configs, err := LoadChannelConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	shopify := configs["Shopify"]
	require.NotNil(t, shopify)
	assert.True(t, shopify.HasCostData)
	assert.Equal(t, "*Shopify*.xlsx", shopify.FilePattern)
	// order_id is forced into the required set.
	assert.Contains(t, shopify.RequiredFields, FieldOrderID)
	assert.Contains(t, shopify.RequiredFields, FieldProductName)

	pinkoi := configs["Pinkoi"]
	require.NotNil(t, pinkoi)
	assert.Equal(t, "訂單明細", pinkoi.SheetName)
	assert.Equal(t, "*.xlsx", pinkoi.FilePattern)
	assert.NotEmpty(t, pinkoi.DateFormats)
	assert.Equal(t, []string{FieldOrderID}, pinkoi.RequiredFields)
}

func TestLoadChannelConfigsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "channel_name: Shopify")
	writeFile(t, dir, "b.yaml", "channel_name: Shopify")

	_, err := LoadChannelConfigs(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate channel name")
}

func TestLoadChannelConfigsEmptyDir(t *testing.T) {
	_, err := LoadChannelConfigs(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channel configurations")
}

func TestLoadChannelConfigUnknownField(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", `
channel_name: Shopify
columns:
  order_number: ["Name"]
`)

	_, err := LoadChannelConfigs(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown canonical field")
}

func TestIsCanonicalField(t *testing.T) {
	assert.True(t, IsCanonicalField(FieldOrderID))
	assert.True(t, IsCanonicalField(FieldPhone))
	assert.False(t, IsCanonicalField("order_number"))
	assert.False(t, IsCanonicalField(""))
}
