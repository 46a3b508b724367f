// Package filex contains small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureUserDataDir creates (if needed) and returns a per-user data
// directory named dirName under the OS user config dir, falling back to the
// current working directory when the config dir cannot be determined.
func EnsureUserDataDir(dirName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
	}

	dir := filepath.Join(base, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
