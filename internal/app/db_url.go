package app

import (
	"net/url"
	"strings"
)

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}

// dbHostFromURL returns host[:port] for logs without leaking credentials.
func dbHostFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		return parsed.Host
	}

	host, port := "", ""
	for _, token := range strings.Fields(trimmed) {
		switch {
		case strings.HasPrefix(token, "host="):
			host = strings.Trim(strings.TrimPrefix(token, "host="), `"'`)
		case strings.HasPrefix(token, "port="):
			port = strings.Trim(strings.TrimPrefix(token, "port="), `"'`)
		}
	}
	if host != "" && port != "" {
		return host + ":" + port
	}
	return host
}
