package build

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"docforge/internal/config"
)

// ScanSources walks the source tree and returns source-dir-relative paths of
// the files whose extension is configured as a source, in stable sorted
// order. Exclude globs are matched against project-relative paths.
func ScanSources(root string, cfg *config.Config) ([]string, error) {
	srcRoot := filepath.Join(root, cfg.Source.Dir)
	var sources []string

	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == srcRoot {
				return fmt.Errorf("source directory %s does not exist", srcRoot)
			}
			return err
		}
		projRel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		projRel = filepath.ToSlash(projRel)

		if excluded(projRel, cfg.Source.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(srcRoot, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		for _, ext := range cfg.Source.Extensions {
			if strings.HasSuffix(rel, ext) {
				sources = append(sources, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(sources)
	return sources, nil
}

// excluded matches rel against the configured glob patterns. A pattern
// without a slash matches any file name; a pattern ending in "/*" prunes
// the whole tree under its prefix.
func excluded(rel string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, rel); ok {
			return true
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := filepath.Match(pat, path.Base(rel)); ok {
				return true
			}
		}
		if prefix, found := strings.CutSuffix(pat, "/*"); found {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
		}
	}
	return false
}
