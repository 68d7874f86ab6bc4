// Package archive bundles a conversion output directory into a single
// distributable file, either zip or xz-compressed tar.
package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// Format selects the bundle container.
type Format string

const (
	Zip   Format = "zip"
	TarXz Format = "txz"
)

// Ext returns the file extension for the format, dot included.
func (f Format) Ext() string {
	switch f {
	case TarXz:
		return ".tar.xz"
	default:
		return ".zip"
	}
}

// Bundle archives srcDir into dstPath. The baseDir parameter names the
// top-level directory inside the archive. Parent directories of
// dstPath are created.
func Bundle(srcDir, dstPath, baseDir string, format Format) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	switch format {
	case Zip:
		return bundleZip(srcDir, dstPath, baseDir)
	case TarXz:
		return bundleTarXz(srcDir, dstPath, baseDir)
	default:
		return fmt.Errorf("unknown archive format %q", format)
	}
}

func bundleZip(srcDir, dstPath, baseDir string) error {
	outFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer outFile.Close()

	zw := zip.NewWriter(outFile)
	now := time.Now()

	err = walkFiles(srcDir, func(relPath string, info os.FileInfo, path string) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = baseDir + "/" + filepath.ToSlash(relPath)
		header.Method = zip.Deflate
		header.Modified = now

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(w, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return zw.Close()
}

func bundleTarXz(srcDir, dstPath, baseDir string) error {
	outFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer outFile.Close()

	xw, err := xz.NewWriter(outFile)
	if err != nil {
		return fmt.Errorf("failed to initialize xz stream: %w", err)
	}

	tw := tar.NewWriter(xw)
	now := time.Now()

	err = walkFiles(srcDir, func(relPath string, info os.FileInfo, path string) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = baseDir + "/" + filepath.ToSlash(relPath)
		header.ModTime = now

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return xw.Close()
}

// walkFiles visits every regular file under srcDir, passing its path
// relative to srcDir. Directories are not emitted as entries.
func walkFiles(srcDir string, fn func(relPath string, info os.FileInfo, path string) error) error {
	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return fn(relPath, info, path)
	})
}
