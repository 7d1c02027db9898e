// =============================================================================
// Monthly Order Report - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the report
// pipeline, including:
//   - Input file discovery
//   - Input archival (moving processed exports)
//   - Directory management
//   - Report file naming
//
// ARCHIVAL STRATEGY:
//   - Channel exports are moved to input_archive after a fully
//     successful run
//   - On any failure, inputs stay where they are and no report file is
//     produced
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the report pipeline.
type FileManager struct {
	// InputDir is the directory where channel exports are placed.
	InputDir string

	// OutputDir is the directory where the report is placed.
	OutputDir string

	// InputArchiveDir is the directory for archived exports.
	InputArchiveDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching the
// glob pattern, sorted by name so that discovery is deterministic.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.xlsx"
	}

	matches, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}

	// Excel leaves ~$ lock files next to open workbooks; never treat
	// them as exports.
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		if strings.HasPrefix(filepath.Base(match), "~$") {
			continue
		}
		files = append(files, match)
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed export to the input archive.
// If a file with the same name already exists in the archive, a
// timestamp suffix is appended.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if err := os.MkdirAll(fm.InputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(fm.InputArchiveDir, filepath.Base(filePath))
	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		base := strings.TrimSuffix(archivePath, ext)
		archivePath = fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102_150405"), ext)
	}

	// Rename first; fall back to copy+remove for cross-device moves.
	if err := os.Rename(filePath, archivePath); err != nil {
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", filePath, err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original %s: %w", filePath, err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// REPORT FILE NAMING
// =============================================================================

// GenerateReportFileName builds the report file name from a format
// string with placeholders.
//
// PLACEHOLDERS:
//   {uuid}      - A random UUID
//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//   {date}      - Current date (YYYYMMDD)
//   {month}     - The report month label (YYYYMM)
//
// EXAMPLE:
//   format: "monthly_report_{month}_{timestamp}.xlsx"
//   month:  "202601"
//   output: "monthly_report_202601_20260201_090000.xlsx"
func GenerateReportFileName(format, month string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{month}":     month,
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks whether a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
