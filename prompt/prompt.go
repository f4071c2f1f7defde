// Package prompt manages the file-backed prompt and style store shared by
// the CLI and the web editor. Prompts are plain .txt files addressed by
// logical name.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Names lists the logical prompt names in dir, sorted.
func Names(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		base := filepath.Base(match)
		names = append(names, strings.TrimSuffix(base, ".txt"))
	}
	sort.Strings(names)
	return names
}

// Normalize reduces a raw prompt name to its logical form: surrounding
// whitespace and any directory part are stripped, as is a .txt suffix.
func Normalize(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return ""
	}
	candidate = filepath.Base(candidate)
	return strings.TrimSuffix(candidate, ".txt")
}

// Path returns the file path for a logical prompt name under dir.
func Path(dir, name string) string {
	return filepath.Join(dir, Normalize(name)+".txt")
}

// Read returns the text content of a prompt file.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write stores prompt text with normalized line endings.
func Write(path, text string) error {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return os.WriteFile(path, []byte(normalized), 0o644)
}

// ResolveFilespec maps a user-provided filespec to a concrete path:
//
//   - containing a path separator: taken literally (absolute as-is,
//     relative to baseDir otherwise);
//   - containing a dot: prompts/<filespec> under baseDir;
//   - otherwise: prompts/<filespec>.txt under baseDir.
//
// baseDir defaults to the current working directory. A missing file is an
// error.
func ResolveFilespec(filespec, baseDir string) (string, error) {
	if baseDir == "" {
		baseDir = "."
	}

	var path string
	switch {
	case strings.ContainsRune(filespec, '/') || strings.ContainsRune(filespec, os.PathSeparator):
		if filepath.IsAbs(filespec) {
			path = filespec
		} else {
			path = filepath.Join(baseDir, filespec)
		}
	case strings.Contains(filespec, "."):
		path = filepath.Join(baseDir, "prompts", filespec)
	default:
		path = filepath.Join(baseDir, "prompts", filespec+".txt")
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("prompt file %s: %w", path, err)
	}
	return path, nil
}

var copyNamePattern = regexp.MustCompile(`^(.+)_copy(\d+)?$`)

// NextCopyName produces the next name in the duplicate sequence:
// "x" -> "x_copy" -> "x_copy2" -> "x_copy3" ...
func NextCopyName(name string) string {
	match := copyNamePattern.FindStringSubmatch(name)
	if match == nil {
		return name + "_copy"
	}
	if match[2] == "" {
		return match[1] + "_copy2"
	}
	n, err := strconv.Atoi(match[2])
	if err != nil {
		return name + "_copy"
	}
	return match[1] + "_copy" + strconv.Itoa(n+1)
}

// SplitMultiValue splits a form field on newlines and commas, trimming
// whitespace and dropping empty entries.
func SplitMultiValue(raw string) []string {
	var values []string
	for _, line := range strings.Split(raw, "\n") {
		for _, part := range strings.Split(line, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	}
	return values
}

// AppendStyle replaces any existing "Style:" trailer in the prompt text
// with the named style's text. An unknown or empty style name leaves the
// text unchanged.
func AppendStyle(promptText, stylesDir, styleName string) string {
	name := Normalize(styleName)
	if name == "" {
		return promptText
	}

	styleText, err := Read(Path(stylesDir, name))
	if err != nil {
		return promptText
	}
	styleText = strings.ReplaceAll(styleText, "\r\n", "\n")
	styleText = strings.ReplaceAll(styleText, "\r", "\n")

	normalized := strings.ReplaceAll(promptText, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), "style:") {
			lines = lines[:i]
			break
		}
	}

	base := strings.TrimRight(strings.Join(lines, "\n"), " \t\n")
	styleLine := "Style: " + name
	switch {
	case base != "" && styleText != "":
		return base + "\n" + styleLine + "\n" + styleText
	case base != "":
		return base + "\n" + styleLine
	case styleText != "":
		return styleLine + "\n" + styleText
	default:
		return styleLine
	}
}
