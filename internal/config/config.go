// Package config loads the import configuration used by the sync command.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/parser"
)

const (
	OUTPUT_ROOT      = "output_root"
	MAX_ERRORS       = "max_errors"
	SHORT_ROWS       = "short_rows"
	FORMATTED_VALUES = "formatted_values"
	ENTRIES          = "entries"

	envPrefix = "SHEETRECORDS"
)

// Entry binds one worksheet to a directory of generated asset files.
type Entry struct {
	// XlsxFile is the workbook path, relative to the config file's directory.
	XlsxFile string `mapstructure:"xlsx_file"`
	// Worksheet is the sheet to import.
	Worksheet string `mapstructure:"worksheet"`
	// AssetType names the kind of asset the rows describe.
	AssetType string `mapstructure:"asset_type"`
	// OutputDir is relative to OutputRoot. Defaults to
	// Generated/<asset_type>/<xlsx base name>/<worksheet>.
	OutputDir string `mapstructure:"output_dir"`
}

type Entity struct {
	OutputRoot      string  `mapstructure:"output_root"`
	MaxErrors       int     `mapstructure:"max_errors"`
	ShortRows       string  `mapstructure:"short_rows"`
	FormattedValues bool    `mapstructure:"formatted_values"`
	Entries         []Entry `mapstructure:"entries"`

	// ProjectDir is the directory holding the config file.
	ProjectDir string `mapstructure:"-"`
}

// Load reads the config file at path. Scalar settings can be overridden by
// SHEETRECORDS_* environment variables.
func Load(path string) (*Entity, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load failed: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(absPath)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(OUTPUT_ROOT, "Content")
	v.SetDefault(MAX_ERRORS, 100)
	v.SetDefault(SHORT_ROWS, parser.PadShortRows.String())
	v.SetDefault(FORMATTED_VALUES, false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config.Load failed: %w", err)
	}

	conf := &Entity{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("config.Load failed: %w", err)
	}
	conf.ProjectDir = filepath.Dir(absPath)

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load failed: %w", err)
	}
	return conf, nil
}

// Validate checks settings that apply to the whole file. Per-entry problems
// are reported during sync so one bad entry does not block the others.
func (c *Entity) Validate() error {
	if c.MaxErrors <= 0 {
		return errors.New("max_errors must be positive")
	}
	if c.OutputRoot == "" {
		return errors.New("output_root must be set")
	}
	if _, err := parser.ParseRowPolicy(c.ShortRows); err != nil {
		return err
	}
	return nil
}

// RowPolicy returns the parsed short_rows setting.
func (c *Entity) RowPolicy() (parser.RowPolicy, error) {
	return parser.ParseRowPolicy(c.ShortRows)
}

// OutputRootPath returns OutputRoot resolved against ProjectDir.
func (c *Entity) OutputRootPath() string {
	return resolve(c.ProjectDir, c.OutputRoot)
}

// XlsxAbsolutePath returns the entry's workbook path resolved against
// projectDir, or "" when no file is set.
func (e Entry) XlsxAbsolutePath(projectDir string) string {
	if e.XlsxFile == "" {
		return ""
	}
	return resolve(projectDir, e.XlsxFile)
}

// ResolvedOutputDir returns OutputDir, or the default derived from the asset
// type, workbook name and worksheet when all three are known.
func (e Entry) ResolvedOutputDir() string {
	if e.OutputDir != "" {
		return e.OutputDir
	}
	if e.AssetType == "" || e.XlsxFile == "" || e.Worksheet == "" {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(e.XlsxFile), filepath.Ext(e.XlsxFile))
	return filepath.Join("Generated", e.AssetType, base, e.Worksheet)
}

// Label identifies the entry in logs and error contexts.
func (e Entry) Label() string {
	return fmt.Sprintf("%s:%s", e.XlsxFile, e.Worksheet)
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}
