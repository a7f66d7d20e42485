// Package instance names the running process in logs.
package instance

import (
	"os"
	"strings"
)

const EnvInstanceID = "WHOLESALE_INSTANCE_ID"

// ID returns the explicit instance id, then the platform dyno name, then
// the hostname, and finally "<kind>-0".
func ID(kind string) string {
	for _, key := range []string{EnvInstanceID, "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if kind == "" {
		kind = "worker"
	}
	return kind + "-0"
}
