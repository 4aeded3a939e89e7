package dev

import "path/filepath"

// WatchPaths resolves paths against projectDir and drops empty entries
// and duplicates, keeping the first occurrence.
func WatchPaths(projectDir string, paths ...string) []string {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = resolvePath(projectDir, p)
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}
	return unique
}

func resolvePath(projectDir, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}
