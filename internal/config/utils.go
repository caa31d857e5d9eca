package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed values from the environment. Malformed values are
// collected instead of silently replaced by their defaults.
type envReader struct {
	errs []error
}

func (r *envReader) String(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func (r *envReader) Int(key string, defaultVal int) int {
	value, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, "integer")
		return defaultVal
	}
	return v
}

func (r *envReader) Bool(key string, defaultVal bool) bool {
	value, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, "boolean")
		return defaultVal
	}
	return v
}

func (r *envReader) Duration(key string, defaultVal time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, "duration")
		return defaultVal
	}
	return d
}

// List splits a comma separated value, dropping blank entries.
func (r *envReader) List(key string, defaults []string) []string {
	value, ok := r.lookup(key)
	if !ok {
		return defaults
	}
	items := make([]string, 0, strings.Count(value, ",")+1)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return defaults
	}
	return items
}

func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}

// lookup treats a blank value as unset.
func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (r *envReader) fail(key, value, kind string) {
	r.errs = append(r.errs, fmt.Errorf("%s: invalid %s %q", key, kind, value))
}
