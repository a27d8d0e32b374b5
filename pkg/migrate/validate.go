package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Migrations run unchanged on Postgres and on the SQLite test store, so
// constructs only one of them understands are refused.
var nonPortable = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)\b(big)?serial\b`), "serial columns are postgres only"},
	{regexp.MustCompile(`(?i)\bjsonb\b`), "jsonb is postgres only"},
	{regexp.MustCompile(`(?i)\btimestamptz\b`), "timestamptz is postgres only"},
	{regexp.MustCompile(`(?i)\bcreate\s+extension\b`), "extensions are postgres only"},
	{regexp.MustCompile(`(?i)\bgen_random_uuid\s*\(`), "ids are generated by the application"},
	{regexp.MustCompile(`(?i)\bnextval\s*\(`), "sequences are managed by the logistics counter"},
	{regexp.MustCompile(`(?i)[a-z0-9_)']::[a-z]`), "postgres cast syntax"},
	{regexp.MustCompile(`(?i)\bautoincrement\b`), "autoincrement is sqlite only"},
}

// ValidateDir checks migration filenames, goose annotations and that each
// statement stays within the SQL shared by the supported dialects.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		name := e.Name()

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("read file %q: %w", full, err)
		}
		if err := validateSQL(name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func validateSQL(name, txt string) error {
	up := strings.Index(txt, "-- +goose Up")
	down := strings.Index(txt, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q declares Down before Up", name)
	}

	begins := strings.Count(txt, "-- +goose StatementBegin")
	ends := strings.Count(txt, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd", name, begins, ends)
	}

	for i, line := range strings.Split(txt, "\n") {
		code := line
		if idx := strings.Index(code, "--"); idx >= 0 {
			code = code[:idx]
		}
		for _, rule := range nonPortable {
			if rule.re.MatchString(code) {
				return fmt.Errorf("migration %q line %d: %s", name, i+1, rule.reason)
			}
		}
	}
	return nil
}
