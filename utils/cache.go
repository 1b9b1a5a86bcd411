package utils

import (
	"os"
	"path/filepath"
)

// GetCacheDir 默认导出目录
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	appDir := filepath.Join(cacheDir, "tsanalyst")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	return appDir, nil
}
