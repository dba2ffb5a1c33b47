package records

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// pgpassEntry is one hostname:port:database:username:password line.
// Any field may be the wildcard "*".
type pgpassEntry struct {
	host, port, database, user, password string
}

func (e pgpassEntry) matches(c PGConfig) bool {
	return wildcard(e.host, c.Host) &&
		wildcard(e.port, strconv.Itoa(portOrDefault(c.Port))) &&
		wildcard(e.database, c.Database) &&
		wildcard(e.user, c.User)
}

func wildcard(pattern, value string) bool {
	return pattern == "*" || pattern == value
}

func portOrDefault(port int) int {
	if port == 0 {
		return 5432
	}
	return port
}

func defaultPgPassPath() string {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgpass")
}

// withCredentials fills an empty database from PGDATABASE and an empty
// password from PGPASSWORD or, failing that, the first matching line of the
// pgpass file
func (c PGConfig) withCredentials(getenv func(string) string, pgpassPath string) (PGConfig, error) {
	if c.Database == "" {
		c.Database = getenv("PGDATABASE")
	}
	if c.Password != "" {
		return c, nil
	}
	if pw := getenv("PGPASSWORD"); pw != "" {
		c.Password = pw
		return c, nil
	}
	if pgpassPath == "" {
		return c, nil
	}

	entries, err := readPgPass(pgpassPath)
	if err != nil {
		return c, err
	}
	for _, e := range entries {
		if e.matches(c) {
			c.Password = e.password
			break
		}
	}
	return c, nil
}

// readPgPass parses a pgpass file. A missing file has no entries and
// malformed lines are skipped.
func readPgPass(path string) ([]pgpassEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0077 != 0 {
		return nil, fmt.Errorf("%s has insecure permissions %v, must be 0600", path, info.Mode().Perm())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var entries []pgpassEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if e, ok := parsePgPassLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries, scanner.Err()
}

// parsePgPassLine splits on unescaped colons; \: and \\ are literal
func parsePgPassLine(line string) (pgpassEntry, bool) {
	var fields []string
	var cur strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			cur.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, cur.String())

	if len(fields) != 5 {
		return pgpassEntry{}, false
	}
	if fields[1] != "*" {
		if p, err := strconv.Atoi(fields[1]); err != nil || p < 1 || p > 65535 {
			return pgpassEntry{}, false
		}
	}
	return pgpassEntry{
		host:     fields[0],
		port:     fields[1],
		database: fields[2],
		user:     fields[3],
		password: fields[4],
	}, true
}
