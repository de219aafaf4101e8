package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultTableName is the event table of the sink
const DefaultTableName = "raw_github_stargazers"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTableName rejects names that cannot be used as an unquoted SQL identifier
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return goerr.New("invalid table name",
			goerr.V("table", name),
			goerr.T(ErrTagConfig),
		)
	}
	return nil
}
