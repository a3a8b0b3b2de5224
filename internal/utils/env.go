package utils

import "os"

// SafeEnv returns the value of the environment variable key, falling back to
// fallback when unset or empty.
func SafeEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
