// Package importer syncs configured worksheets into per-asset JSON files.
//
// Each record of an entry's worksheet becomes <output_root>/<output_dir>/<asset_name>.json.
// Files are rewritten only when their content changes, and JSON files in the
// output dir that no longer match a record are removed.
package importer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ukaji3/sheetrecords-go/internal/config"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/models"
	"github.com/ukaji3/sheetrecords-go/pkg/sheetrecords/output"
	"go.uber.org/zap"
)

const assetExt = ".json"

// Result counts what SyncEntry did to the output dir.
type Result struct {
	Written   int
	Unchanged int
	Deleted   int
}

// Importer writes the records of configured worksheets as asset files.
type Importer struct {
	conf   *config.Entity
	logger *zap.Logger
}

// New returns an Importer for conf. A nil logger discards log entries.
func New(conf *config.Entity, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{conf: conf, logger: logger}
}

// SyncAll syncs every entry in order and returns the number of errors in
// errs. It stops early once max_errors errors have accumulated.
func (im *Importer) SyncAll(errs *ErrorLog) int {
	for i := range im.conf.Entries {
		im.SyncEntry(i, errs)
		if im.full(errs) {
			break
		}
	}
	im.logger.Info("import run completed", zap.Int("errors", errs.Num()))
	return errs.Num()
}

// SyncEntry reads the i-th entry's worksheet and brings its output dir in
// line with the records.
func (im *Importer) SyncEntry(i int, errs *ErrorLog) Result {
	var res Result
	entry := im.conf.Entries[i]

	pop := errs.PushContext(entry.Label())
	defer pop()

	xlsxPath := entry.XlsxAbsolutePath(im.conf.ProjectDir)
	outDir := entry.ResolvedOutputDir()
	switch {
	case entry.AssetType == "" && entry.OutputDir == "":
		errs.Log("could not sync assets: no asset type or output dir set")
		return res
	case xlsxPath == "":
		errs.Log("could not sync assets: xlsx file not set")
		return res
	case entry.Worksheet == "":
		errs.Log("could not sync assets: no worksheet name set")
		return res
	case outDir == "":
		errs.Log("could not sync assets: no output dir set")
		return res
	}

	opts, err := im.readOptions()
	if err != nil {
		errs.Logf("could not sync assets: %v", err)
		return res
	}

	records, err := sheetrecords.ReadWorksheet(xlsxPath, entry.Worksheet, opts)
	if err != nil {
		errs.Logf("could not read worksheet: %v", err)
		return res
	}

	dir := filepath.Join(im.conf.OutputRootPath(), outDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		errs.Logf("could not create output dir %s: %v", dir, err)
		return res
	}

	// Lower-cased asset name to the path written for it. Names differing only
	// in case collide on case-insensitive file systems.
	wanted := make(map[string]string, len(records))
	for rowIdx, rec := range records {
		if err := validateAssetName(rec.AssetName); err != nil {
			// +2: 1-based rows plus the header row
			errs.Logf("row %d: %v", rowIdx+2, err)
			if im.full(errs) {
				return res
			}
			continue
		}
		key := strings.ToLower(rec.AssetName)
		if _, dup := wanted[key]; dup {
			errs.Logf("row %d: duplicate asset name %q", rowIdx+2, rec.AssetName)
			if im.full(errs) {
				return res
			}
			continue
		}
		path := filepath.Join(dir, rec.AssetName+assetExt)
		wanted[key] = path

		changed, err := writeAsset(path, rec)
		if err != nil {
			errs.Logf("unable to save file %s: %v", path, err)
			if im.full(errs) {
				return res
			}
			continue
		}
		if changed {
			res.Written++
			im.logger.Info("wrote asset", zap.String("path", path))
		} else {
			res.Unchanged++
		}
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*"+assetExt))
	if err != nil {
		errs.Logf("could not list %s: %v", dir, err)
		return res
	}
	for _, path := range existing {
		name := strings.TrimSuffix(filepath.Base(path), assetExt)
		if kept, ok := wanted[strings.ToLower(name)]; ok && sameFile(path, kept) {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs.Logf("unable to delete asset %s: %v", path, err)
			if im.full(errs) {
				return res
			}
			continue
		}
		res.Deleted++
		im.logger.Info("deleted stale asset", zap.String("path", path))
	}

	im.logger.Debug("synced entry",
		zap.String("entry", entry.Label()),
		zap.Int("written", res.Written),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("deleted", res.Deleted),
	)
	return res
}

func (im *Importer) readOptions() (sheetrecords.Options, error) {
	opts := sheetrecords.DefaultOptions()
	policy, err := im.conf.RowPolicy()
	if err != nil {
		return opts, err
	}
	opts.ShortRows = policy
	opts.FormattedValues = im.conf.FormattedValues
	opts.Logger = im.logger
	return opts, nil
}

// full reports whether max_errors has been reached. A non-positive limit
// never fills.
func (im *Importer) full(errs *ErrorLog) bool {
	return im.conf.MaxErrors > 0 && errs.Num() >= im.conf.MaxErrors
}

// sameFile reports whether a and b name the same file, which holds for paths
// differing only in case on a case-insensitive file system.
func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// validateAssetName rejects names that cannot be used as a file name.
func validateAssetName(name string) error {
	switch {
	case name == "":
		return errors.New("empty asset name")
	case name == "." || name == "..":
		return errors.New("invalid asset name " + name)
	case strings.ContainsAny(name, `/\:*?"<>|`):
		return errors.New("asset name " + name + " contains a path or reserved character")
	}
	return nil
}

// writeAsset writes rec to path unless the file already holds the same bytes.
func writeAsset(path string, rec models.Record) (bool, error) {
	data, err := output.RecordToJSON(rec, true)
	if err != nil {
		return false, err
	}
	data = append(data, '\n')

	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}
