package core

import (
	"encoding/hex"
	"path/filepath"
	"strings"
)

const BundleExt = ".js"

func BundleFileName(key CacheKey) string {
	return string(key) + BundleExt
}

// IsBundleFileName reports whether name is a top-level bundle named by its
// cache key. Such a file never changes once written.
func IsBundleFileName(name string) bool {
	key, ok := strings.CutSuffix(name, BundleExt)
	if !ok || len(key) != hex.EncodedLen(16) || strings.ToLower(key) != key {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

// SyntheticSources are the absolute paths of the generated entry harness and
// page module for one build. They only ever exist in a build overlay.
type SyntheticSources struct {
	Entry string
	Page  string
}

func SyntheticSourcePaths(workDir, sourceDir, componentPath string) SyntheticSources {
	ext := filepath.Ext(componentPath)
	if ext == "" {
		ext = ".jsx"
	}
	dir := filepath.Join(workDir, sourceDir)
	return SyntheticSources{
		Entry: filepath.Join(dir, "entry"+ext),
		Page:  filepath.Join(dir, "page"+ext),
	}
}
