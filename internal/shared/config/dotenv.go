package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"execsummary-backend/internal/shared/telemetry"
)

// loadEnvFiles sets variables from each file that exists and returns the
// files read. The process environment wins over file values.
func loadEnvFiles(paths ...string) []string {
	var loaded []string
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			telemetry.Warn("config.env_file_invalid", map[string]any{"path": path, "error": err.Error()})
			continue
		}
		for k, v := range values {
			if _, set := os.LookupEnv(k); !set {
				_ = os.Setenv(k, v)
			}
		}
		loaded = append(loaded, path)
	}
	return loaded
}
