package env

import "os"

// Get returns the named environment variable, or fallback when it is unset
// or empty. Empty values are treated as unset so a blank override in a unit
// file does not clobber the default.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
