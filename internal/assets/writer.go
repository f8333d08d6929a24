package assets

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Writer places downloaded artwork into the asset tree. Downloads land in a
// temp file first and are promoted into their final path with a rename, so a
// half-written file never sits at an asset path.
type Writer struct {
	root string
	log  zerolog.Logger
}

// NewWriter builds a writer rooted at the asset tree base directory.
func NewWriter(root string, log zerolog.Logger) *Writer {
	return &Writer{root: root, log: log}
}

// ItemPath returns the asset path for a library item,
// e.g. assets/Movies/Dune (2021)/poster.jpg.
func (w *Writer) ItemPath(library, dir, filename string) string {
	return filepath.Join(w.root, library, dir, filename)
}

// SeasonPath returns the season poster path,
// e.g. assets/TV Shows/Severance (2022)/Season01.jpg.
func (w *Writer) SeasonPath(library, dir string, season int) string {
	return filepath.Join(w.root, library, dir, SeasonFilename(season))
}

// SeasonFilename is the canonical season poster file name.
func SeasonFilename(season int) string {
	return fmt.Sprintf("Season%02d.jpg", season)
}

// WriteTemp stores downloaded bytes under a unique temp name inside the
// library's asset directory and returns the path. The caller promotes or
// discards it.
func (w *Writer) WriteTemp(library string, data []byte) (string, error) {
	dir := filepath.Join(w.root, library)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create asset directory: %w", err)
	}
	path := filepath.Join(dir, "temp_"+uuid.NewString()+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp asset: %w", err)
	}
	return path, nil
}

// Promote moves a temp file into its final asset path. When the destination
// already holds identical bytes the temp file is discarded and promoted is
// false.
func (w *Writer) Promote(tempPath, assetPath string) (promoted bool, err error) {
	same, err := sameChecksum(tempPath, assetPath)
	if err != nil {
		return false, err
	}
	if same {
		w.Discard(tempPath)
		w.log.Debug().Str("path", assetPath).Msg("asset already up to date")
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(assetPath), 0o755); err != nil {
		return false, fmt.Errorf("create asset directory: %w", err)
	}
	if err := os.Rename(tempPath, assetPath); err != nil {
		return false, fmt.Errorf("place asset: %w", err)
	}
	return true, nil
}

// Discard removes a temp file, tolerating one that is already gone.
func (w *Writer) Discard(tempPath string) {
	if tempPath == "" {
		return
	}
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		w.log.Warn().Err(err).Str("path", tempPath).Msg("removing temp asset failed")
	}
}

// sameChecksum reports whether both files exist and hold identical content.
func sameChecksum(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, fmt.Errorf("read temp asset: %w", err)
	}
	db, err := os.ReadFile(b)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read existing asset: %w", err)
	}
	return md5.Sum(da) == md5.Sum(db), nil
}
