package files_manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"img2pdf/contracts"
)

type ImageFolder = contracts.ImageFolder

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tiff", ".webp"}

// SupportedFormats returns a copy of the recognized extensions, lower case
// with leading dot.
func SupportedFormats() []string {
	out := make([]string, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range supportedFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// PDFPathFor replaces the extension of imagePath with ".pdf".
func PDFPathFor(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".pdf"
}

func CheckDir(dir string) error {
	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return contracts.NewError(contracts.KindNotDirectory, dir, fmt.Errorf("%s is not a directory", dir))
		}
		return contracts.NewError(contracts.KindEncodeOrWrite, dir, err)
	}
	if !stat.IsDir() {
		return contracts.NewError(contracts.KindNotDirectory, dir, fmt.Errorf("%s is not a directory", dir))
	}
	return nil
}

// GetImagePaths lists the supported images directly inside dir, sorted by
// name. Extension matching ignores case; AppleDouble "._" files are skipped.
func GetImagePaths(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	imageFiles := make([]string, 0, len(entries))
	var size int64 = 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "._") {
			continue
		}
		if !IsSupported(entry.Name()) {
			continue
		}
		imageFiles = append(imageFiles, filepath.Join(dir, entry.Name()))
		if info, err := entry.Info(); err == nil {
			size += info.Size()
		}
	}
	sort.Strings(imageFiles)
	return imageFiles, size, nil
}

func ScanImageFolder(dir string) (ImageFolder, error) {
	if err := CheckDir(dir); err != nil {
		return ImageFolder{}, err
	}
	paths, size, err := GetImagePaths(dir)
	if err != nil {
		return ImageFolder{}, contracts.NewError(contracts.KindEncodeOrWrite, dir, err)
	}
	return ImageFolder{
		ImagePaths: paths,
		Name:       filepath.Base(filepath.Clean(dir)),
		Path:       dir,
		ImagesSize: size,
	}, nil
}

// ExpandPatterns resolves each glob pattern and returns the union of the
// matches, deduplicated and sorted lexicographically. Directories are dropped.
// A pattern naming an existing regular file is taken literally, so names the
// shell already expanded survive even when they contain [ or *.
func ExpandPatterns(patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches := []string{pattern}
		if info, err := os.Stat(pattern); err != nil || !info.Mode().IsRegular() {
			matches, err = filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func HasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[`)
}
