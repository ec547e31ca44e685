package main

import "path/filepath"

// dataFilePath resolves name under the data directory.
func dataFilePath(dataDir, name string) string {
	return filepath.Join(dataDir, name)
}

// resolveDBPath returns ":memory:" when inMem is set, otherwise the
// on-disk database path under dataDir.
func resolveDBPath(dataDir string, inMem bool) string {
	if inMem {
		return ":memory:"
	}
	return dataFilePath(dataDir, "transactions.db")
}
