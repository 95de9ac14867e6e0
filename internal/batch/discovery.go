package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/formscan/internal/tokens"
)

// Job is one document to process: a token file, a page image, or both.
type Job struct {
	TokensPath string
	ImagePath  string
}

// Source names the job in output.
func (j Job) Source() string {
	if j.TokensPath != "" {
		return j.TokensPath
	}
	return j.ImagePath
}

// discoverJobs expands args into jobs. Token files are paired with a sibling image of the same
// stem. Images without a token file become jobs only when imagesAlone is set, which is the case
// when a recognizer can produce their tokens.
func discoverJobs(args []string, cfg *Config, imagesAlone bool) ([]Job, error) {
	files, err := discoverFiles(args, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	exts := normalizeExtensions(cfg.ImageExtensions)
	var (
		jobs   []Job
		images []string
		paired = make(map[string]bool)
	)
	for _, f := range files {
		switch {
		case isTokenFile(f):
			img := findImage(f, exts)
			if img != "" {
				paired[img] = true
			}
			jobs = append(jobs, Job{TokensPath: f, ImagePath: img})
		case slices.Contains(exts, strings.ToLower(filepath.Ext(f))):
			images = append(images, f)
		}
	}
	if imagesAlone {
		for _, img := range images {
			if !paired[img] {
				jobs = append(jobs, Job{ImagePath: img})
			}
		}
	}
	return jobs, nil
}

// discoverFiles finds all files matching the given patterns.
func discoverFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			files = append(files, arg)
		}
	}

	return files, nil
}

// discoverInDirectory walks dir, descending only when recursive is set.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}

	// If no include patterns, include all (that aren't excluded)
	if len(includePatterns) == 0 {
		return true
	}

	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file's base name matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func isTokenFile(path string) bool {
	return tokens.FormatFromPath(path) != tokens.FormatAuto
}

// findImage returns the first sibling of tokenPath with the same stem and one of exts.
func findImage(tokenPath string, exts []string) string {
	stem := strings.TrimSuffix(tokenPath, filepath.Ext(tokenPath))
	for _, ext := range exts {
		for _, candidate := range []string{stem + ext, stem + strings.ToUpper(ext)} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
