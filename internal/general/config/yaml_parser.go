package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parseYAML parses the specific two-level mapping used by config.yaml
func parseYAML(r io.Reader, cfg *Config) error {
	type section int
	const (
		none section = iota
		db
		rm
		rd
		sv
		ap
		jw
	)

	scanner := bufio.NewScanner(r)
	var cur section

	lineNo := 0
	seenTop := map[section]bool{}

	enter := func(s section, name string) error {
		if seenTop[s] {
			return fmt.Errorf("line %d: duplicate %q section", lineNo, name)
		}
		seenTop[s] = true
		cur = s
		return nil
	}

	setInt := func(dst *int, name, val string) error {
		n, err := strconv.Atoi(resolveScalar(val))
		if err != nil {
			return fmt.Errorf("line %d: %s must be int: %v", lineNo, name, err)
		}
		*dst = n
		return nil
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		// strip comments
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}

		line := strings.TrimRight(raw, " \t\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// top-level section? (no leading spaces)
		if line[0] != ' ' && line[0] != '\t' {
			var err error
			switch strings.TrimSpace(line) {
			case "database:":
				err = enter(db, "database")
			case "rabbitmq:":
				err = enter(rm, "rabbitmq")
			case "redis:":
				err = enter(rd, "redis")
			case "services:":
				err = enter(sv, "services")
			case "autopilot:":
				err = enter(ap, "autopilot")
			case "jwt:":
				err = enter(jw, "jwt")
			default:
				err = fmt.Errorf("line %d: unknown top-level key %q", lineNo, strings.TrimSuffix(strings.TrimSpace(line), ":"))
			}
			if err != nil {
				return err
			}
			continue
		}

		// expect indented "key: value"
		if cur == none {
			return fmt.Errorf("line %d: key without a section", lineNo)
		}
		trim := strings.TrimSpace(line)
		colon := strings.IndexByte(trim, ':')
		if colon <= 0 {
			return fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		key := strings.TrimSpace(trim[:colon])
		val := strings.TrimSpace(trim[colon+1:])

		var err error
		switch cur {
		case db:
			switch key {
			case "host":
				cfg.Database.Host = resolveScalar(val)
			case "port":
				err = setInt(&cfg.Database.Port, "database.port", val)
			case "user":
				cfg.Database.User = resolveScalar(val)
			case "password":
				cfg.Database.Password = resolveScalar(val)
			case "database":
				cfg.Database.Name = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in database: %q", lineNo, key)
			}
		case rm:
			switch key {
			case "host":
				cfg.RabbitMQ.Host = resolveScalar(val)
			case "port":
				err = setInt(&cfg.RabbitMQ.Port, "rabbitmq.port", val)
			case "user":
				cfg.RabbitMQ.User = resolveScalar(val)
			case "password":
				cfg.RabbitMQ.Password = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in rabbitmq: %q", lineNo, key)
			}
		case rd:
			switch key {
			case "host":
				cfg.Redis.Host = resolveScalar(val)
			case "port":
				err = setInt(&cfg.Redis.Port, "redis.port", val)
			case "db":
				err = setInt(&cfg.Redis.DB, "redis.db", val)
			default:
				err = fmt.Errorf("line %d: unknown key in redis: %q", lineNo, key)
			}
		case sv:
			switch key {
			case "lifecycle_service":
				err = setInt(&cfg.Services.LifecycleServicePort, "services.lifecycle_service", val)
			case "autopilot_service":
				err = setInt(&cfg.Services.AutopilotServicePort, "services.autopilot_service", val)
			default:
				err = fmt.Errorf("line %d: unknown key in services: %q", lineNo, key)
			}
		case ap:
			switch key {
			case "scan_interval_seconds":
				err = setInt(&cfg.Autopilot.ScanIntervalSeconds, "autopilot.scan_interval_seconds", val)
			case "batch_limit":
				err = setInt(&cfg.Autopilot.BatchLimit, "autopilot.batch_limit", val)
			default:
				err = fmt.Errorf("line %d: unknown key in autopilot: %q", lineNo, key)
			}
		case jw:
			switch key {
			case "secret_key":
				cfg.JWT.SecretKey = resolveScalar(val)
			default:
				err = fmt.Errorf("line %d: unknown key in jwt: %q", lineNo, key)
			}
		}
		if err != nil {
			return err
		}
	}

	return scanner.Err()
}

// resolveScalar trims whitespace and removes surrounding quotes from YAML-like scalars.
func resolveScalar(s string) string {
	s = strings.TrimSpace(s)

	n := len(s)
	if n >= 2 {
		if (s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'') {
			if unq, err := strconv.Unquote(s); err == nil {
				return unq
			}
			// fallback if strconv.Unquote fails (e.g., mismatched quotes)
			return s[1 : n-1]
		}
	}

	return s
}
