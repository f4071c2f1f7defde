// Package asset manages the generated-image directory: listing, safe path
// resolution and the mapping from filenames back to prompt names.
package asset

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/zcordelier/imagegen/prompt"
)

// imageSuffixes are the file suffixes shown in the gallery.
var imageSuffixes = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

// List returns the image files directly under dir, newest first. A missing
// directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type candidate struct {
		path  string
		mtime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !imageSuffixes[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, ierr := entry.Info()
		if ierr != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:  filepath.Join(dir, entry.Name()),
			mtime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime > candidates[j].mtime })

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths, nil
}

// Resolve maps a client-supplied filename to a path inside dir. Names that
// escape the directory resolve to "".
func Resolve(dir, filename string) string {
	if filename == "" {
		return ""
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	candidate, err := filepath.Abs(filepath.Join(root, filename))
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return candidate
}

// Relative returns path relative to dir, falling back to the bare filename
// for paths outside it. The result uses forward slashes for URLs.
func Relative(dir, path string) string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// timestampTail matches the numeric stamp the generator appends to names.
var timestampTail = regexp.MustCompile(`-\d+`)

// PromptNameFromFilename recovers the prompt name an asset was generated
// from by stripping the extension and the trailing numeric stamp.
func PromptNameFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if loc := timestampTail.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	return prompt.Normalize(name)
}

// Entry is one asset as the gallery presents it.
type Entry struct {
	// Display is the label shown to the user.
	Display string `json:"display"`
	// Filename is the path relative to the assets directory, used in
	// asset-serving URLs.
	Filename string `json:"filename"`
}

// BuildEntries labels freshly generated paths with their full display path.
func BuildEntries(paths []string, dir string) []Entry {
	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, Entry{Display: path, Filename: Relative(dir, path)})
	}
	return entries
}

// GalleryEntries labels stored assets with their directory-relative names.
func GalleryEntries(paths []string, dir string) []Entry {
	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		rel := Relative(dir, path)
		entries = append(entries, Entry{Display: rel, Filename: rel})
	}
	return entries
}
