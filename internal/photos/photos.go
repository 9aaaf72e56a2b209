// Package photos collects image files from a folder into an ordered list
// of root-relative paths for a slideshow.
package photos

import (
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photocast/internal/models"
)

// IsImage reports whether a filename has a supported image extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp":
		return true
	default:
		return false
	}
}

type entry struct {
	rel  string
	info fs.FileInfo
}

// Collect walks root and returns the slideshow order as root-relative slash
// paths. Grouping and sorting follow opts; when opts.Shuffle is set the
// result is randomized instead of sorted. Symlinks resolving outside root
// are skipped.
func Collect(root string, opts models.CollectOptions) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("folder %s: %w", root, models.ErrNotADirectory)
	}

	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("resolving folder %s: %w", root, err)
	}

	var entries []entry
	if !opts.Recursive {
		entries, err = listDir(root, resolvedRoot, root)
		if err != nil {
			return nil, err
		}
		sortEntries(entries, opts)
	} else if opts.GroupByFolder {
		// Base folder first, then every subfolder as its own contiguous,
		// individually sorted block, subfolders in lexical order.
		entries, err = listDir(root, resolvedRoot, root)
		if err != nil {
			return nil, err
		}
		sortEntries(entries, opts)

		subdirs, err := collectSubdirs(root, resolvedRoot)
		if err != nil {
			return nil, err
		}
		for _, dir := range subdirs {
			block, err := listDir(root, resolvedRoot, dir)
			if err != nil {
				return nil, err
			}
			sortEntries(block, opts)
			entries = append(entries, block...)
		}
	} else {
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !IsImage(p) {
				return nil
			}
			e, ok := statContained(root, resolvedRoot, p)
			if ok {
				entries = append(entries, e)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking folder %s: %w", root, err)
		}
		sortEntries(entries, opts)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.rel
	}
	if opts.Shuffle {
		rand.Shuffle(len(paths), func(i, j int) {
			paths[i], paths[j] = paths[j], paths[i]
		})
	}
	return paths, nil
}

// listDir returns the image files directly inside dir.
func listDir(root, resolvedRoot, dir string) ([]entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder %s: %w", dir, err)
	}
	var entries []entry
	for _, de := range des {
		if de.IsDir() || !IsImage(de.Name()) {
			continue
		}
		if e, ok := statContained(root, resolvedRoot, filepath.Join(dir, de.Name())); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// collectSubdirs returns every directory below root in lexical path order.
func collectSubdirs(root, resolvedRoot string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && p != root {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking folder %s: %w", root, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// statContained resolves p and keeps it only if it is a regular file whose
// real path stays inside the resolved root.
func statContained(root, resolvedRoot, p string) (entry, bool) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return entry{}, false
	}
	if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
		return entry{}, false
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return entry{}, false
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return entry{}, false
	}
	return entry{rel: filepath.ToSlash(rel), info: info}, true
}

func sortEntries(entries []entry, opts models.CollectOptions) {
	if opts.Shuffle {
		return
	}
	switch opts.SortOrder {
	case models.SortNewest:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].info.ModTime().After(entries[j].info.ModTime())
		})
	case models.SortOldest:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].info.ModTime().Before(entries[j].info.ModTime())
		})
	default:
		sort.Slice(entries, func(i, j int) bool {
			return strings.ToLower(filepath.Base(entries[i].rel)) < strings.ToLower(filepath.Base(entries[j].rel))
		})
	}
}
