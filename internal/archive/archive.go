package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// defaultDirMode is applied to directories created during extraction.
	defaultDirMode os.FileMode = 0o755
)

var (
	// errUnsupportedEntry is returned for entries that are neither files nor directories.
	errUnsupportedEntry = errors.New("unsupported directory entry")
	// errInsecurePath is returned when an archive entry would escape the target directory.
	errInsecurePath = errors.New("archive entry escapes target directory")
)

// CompressDir writes a gzip-compressed tar archive of the directory contents
// to dstPath. Entry names are relative to srcDir, so extraction reproduces
// the directory byte-for-byte. Walk order is lexical, which keeps archives
// of identical trees identical.
func CompressDir(srcDir, dstPath string) error {
	srcDir = filepath.Clean(srcDir)

	output, err := os.Create(filepath.Clean(dstPath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	gzipWriter := gzip.NewWriter(output)
	tarWriter := tar.NewWriter(gzipWriter)

	walkErr := filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == srcDir {
			return nil
		}

		relative, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		return writeEntry(tarWriter, path, filepath.ToSlash(relative), entry)
	})

	// Close in reverse order so the gzip trailer lands on disk.
	for _, closeFn := range []func() error{tarWriter.Close, gzipWriter.Close, output.Close} {
		if err := closeFn(); err != nil && walkErr == nil {
			walkErr = err
		}
	}

	if walkErr != nil {
		_ = os.Remove(dstPath)

		return fmt.Errorf("compress %s: %w", srcDir, walkErr)
	}

	return nil
}

// writeEntry appends a single file or directory to the tar stream.
func writeEntry(tarWriter *tar.Writer, path, name string, entry fs.DirEntry) error {
	info, err := entry.Info()
	if err != nil {
		return err
	}

	switch {
	case info.Mode().IsDir():
		header := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     name + "/",
			Mode:     int64(info.Mode().Perm()),
			ModTime:  info.ModTime(),
		}

		return tarWriter.WriteHeader(header)
	case info.Mode().IsRegular():
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     int64(info.Mode().Perm()),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		}

		if err = tarWriter.WriteHeader(header); err != nil {
			return err
		}

		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return err
		}

		_, err = io.Copy(tarWriter, file)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}

		return err
	default:
		return fmt.Errorf("%s: %w", name, errUnsupportedEntry)
	}
}

// Extract unpacks a gzip-compressed tar archive into dstDir.
// Entry names are validated so a crafted archive cannot write outside dstDir.
func Extract(srcPath, dstDir string) error {
	dstDir = filepath.Clean(dstDir)

	input, err := os.Open(filepath.Clean(srcPath))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = input.Close()
	}()

	gzipReader, err := gzip.NewReader(input)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	defer func() {
		_ = gzipReader.Close()
	}()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		target, err := secureJoin(dstDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, defaultDirMode); err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err = extractFile(tarReader, target, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
		default:
			return fmt.Errorf("%s: %w", header.Name, errUnsupportedEntry)
		}
	}
}

// extractFile writes a single regular file from the tar stream.
func extractFile(tarReader *tar.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	output, err := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	//nolint:gosec // Archives are produced by this tool; size is bounded by the source tree.
	_, err = io.Copy(output, tarReader)
	if closeErr := output.Close(); err == nil {
		err = closeErr
	}

	return err
}

// secureJoin resolves an archive entry name under dir, rejecting escapes.
func secureJoin(dir, name string) (string, error) {
	joined := filepath.Join(dir, filepath.FromSlash(name))
	if joined != dir && !strings.HasPrefix(joined, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%s: %w", name, errInsecurePath)
	}

	return joined, nil
}
