package config

import (
	"fmt"
	"os"
	"regexp"
)

// Observium's config.php declares its database connection as PHP
// assignments. Each key is required; a config.php without all four is
// malformed.
var observiumKeys = []string{"db_host", "db_user", "db_pass", "db_name"}

// LoadObservium extracts the database credentials from an Observium
// config.php and returns them as a mysql driver DSN.
func LoadObservium(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read observium config: %w", err)
	}

	values := make(map[string]string, len(observiumKeys))
	for _, key := range observiumKeys {
		re := regexp.MustCompile(`\$config\['` + key + `'\]\s*=\s*'([^']*)'`)
		m := re.FindSubmatch(data)
		if m == nil {
			return "", fmt.Errorf("observium config %s: missing $config['%s']", path, key)
		}
		values[key] = string(m[1])
	}
	if values["db_host"] == "" || values["db_name"] == "" {
		return "", fmt.Errorf("observium config %s: db_host and db_name must not be empty", path)
	}

	return fmt.Sprintf("%s:%s@tcp(%s)/%s",
		values["db_user"], values["db_pass"], values["db_host"], values["db_name"]), nil
}
