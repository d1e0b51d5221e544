package datapack

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/voxelio/voxel-studio/internal/models"
)

// FixedZipTime keeps compiled archives byte-for-byte reproducible (1980-01-01 UTC)
var FixedZipTime = time.Unix(315532800, 0).UTC()

// archiveExtensions lists the upload formats accepted as a single archive
var archiveExtensions = []string{".zip", ".jar"}

// Upload is a datapack read from disk, before analysis
type Upload struct {
	Name  string
	Files models.FileMap
}

// OpenUpload reads exactly one datapack: a .zip/.jar archive or a directory
func OpenUpload(fs afero.Fs, paths []string) (*Upload, error) {
	if len(paths) == 0 {
		return nil, invalid("", "no file selected")
	}
	if len(paths) > 1 {
		return nil, invalid("", "expected a single datapack, got %d files", len(paths))
	}
	p := paths[0]

	info, err := fs.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}

	name := ArchiveName(p)
	if info.IsDir() {
		files, err := ReadDir(fs, p)
		if err != nil {
			return nil, err
		}
		return &Upload{Name: name, Files: files}, nil
	}

	if !hasArchiveExtension(p) {
		return nil, invalid(p, "unsupported extension %q (expected one of %s)",
			filepath.Ext(p), strings.Join(archiveExtensions, ", "))
	}

	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	files, err := ReadArchive(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Path == "" {
			verr.Path = p
		}
		return nil, err
	}
	return &Upload{Name: name, Files: files}, nil
}

// ArchiveName returns the datapack name for an upload path
func ArchiveName(p string) string {
	base := filepath.Base(filepath.Clean(p))
	for _, ext := range archiveExtensions {
		if strings.EqualFold(filepath.Ext(base), ext) {
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return base
}

// ReadArchive reads every file entry of a zip archive
func ReadArchive(r io.ReaderAt, size int64) (models.FileMap, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, invalid("", "not a zip archive: %v", err)
	}

	files := make(models.FileMap, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, invalid(f.Name, "unreadable entry: %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, invalid(f.Name, "unreadable entry: %v", err)
		}
		files[models.NormalizePath(f.Name)] = data
	}

	return files, nil
}

// ReadDir reads an unpacked datapack directory
func ReadDir(fs afero.Fs, root string) (models.FileMap, error) {
	files := make(models.FileMap)
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return err
		}
		files[models.NormalizePath(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read datapack directory: %w", err)
	}
	return files, nil
}

// WriteArchive writes files as a deterministic zip archive: sorted entries,
// fixed timestamps
func WriteArchive(w io.Writer, files models.FileMap) error {
	zw := zip.NewWriter(w)
	for _, p := range files.Paths() {
		h := &zip.FileHeader{Name: p, Method: zip.Deflate}
		h.SetMode(0o644)
		h.Modified = FixedZipTime
		fw, err := zw.CreateHeader(h)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
		if _, err := fw.Write(files[p]); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func hasArchiveExtension(p string) bool {
	ext := filepath.Ext(p)
	for _, allowed := range archiveExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
