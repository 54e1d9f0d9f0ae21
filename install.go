package cyext

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var nativeModuleExtensions = map[string]struct{}{
	".so":    {},
	".pyd":   {},
	".dylib": {},
}

// packageDataExtensions are the auxiliary files shipped alongside the
// compiled modules so dependent bindings can cimport against the
// installed tree.
var packageDataExtensions = map[string]struct{}{
	".pxd": {},
	".h":   {},
}

// FinalizeExtensions copies compiled native modules into the destination
// package layout and carries the package data (*.pxd, *.h) found next to
// the source with them. It returns the installed paths relative to the
// destination root.
//
// If config.DestPath is empty, the build outputs are returned relative to
// the project root and nothing is copied.
func FinalizeExtensions(config *BuildConfig, target Extension, extensionDir string, built []string) ([]string, error) {
	if len(built) == 0 {
		return nil, nil
	}

	if config.DestPath == "" {
		return makeProjectRelative(config.ProjectDir, target.Source, built), nil
	}

	packageDir := filepath.Join(config.DestPath, packagePath(target.Name))

	var installed []string

	for _, rel := range built {
		if !isNativeModule(rel) {
			continue
		}

		srcPath := filepath.Join(extensionDir, rel)
		if info, err := os.Stat(srcPath); err != nil || !info.Mode().IsRegular() {
			continue
		}

		destPath := filepath.Join(packageDir, filepath.Base(rel))
		if err := copyFile(srcPath, destPath); err != nil {
			return nil, err
		}

		if relPath, err := filepath.Rel(config.DestPath, destPath); err == nil {
			installed = append(installed, filepath.ToSlash(relPath))
		} else {
			installed = append(installed, filepath.ToSlash(destPath))
		}
	}

	// Carry the package data alongside the modules
	data, err := collectPackageData(extensionDir)
	if err != nil {
		return nil, err
	}
	for _, rel := range data {
		srcPath := filepath.Join(extensionDir, rel)
		destPath := filepath.Join(packageDir, rel)
		if err := copyFile(srcPath, destPath); err != nil {
			return nil, err
		}
		if relPath, err := filepath.Rel(config.DestPath, destPath); err == nil {
			installed = append(installed, filepath.ToSlash(relPath))
		}
	}

	return uniqueStrings(installed), nil
}

// packagePath converts a dotted module name into its package directory,
// e.g. "folly.iobuf" → "folly".
func packagePath(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return filepath.FromSlash(strings.ReplaceAll(name[:idx], ".", "/"))
}

// isNativeModule reports whether the path names a compiled module.
// Version-tagged artifacts (iobuf.cpython-312-x86_64-linux-gnu.so) are
// recognized through their final extension.
func isNativeModule(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := nativeModuleExtensions[ext]
	return ok
}

// collectPackageData lists the *.pxd and *.h files in dir, relative to it.
func collectPackageData(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory %s: %v", dir, err)
	}

	var data []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := packageDataExtensions[ext]; ok {
			data = append(data, entry.Name())
		}
	}

	return data, nil
}

func makeProjectRelative(projectDir, sourceFile string, built []string) []string {
	var relPaths []string
	baseDir := filepath.Dir(sourceFile)

	for _, rel := range built {
		full := filepath.Join(baseDir, rel)
		if projectDir != "" {
			if cleaned, err := filepath.Rel(projectDir, filepath.Join(projectDir, full)); err == nil {
				relPaths = append(relPaths, filepath.ToSlash(cleaned))
				continue
			}
		}
		relPaths = append(relPaths, filepath.ToSlash(full))
	}

	return relPaths
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
