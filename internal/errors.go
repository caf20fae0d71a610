package internal

import "errors"

// Warning is an outcome worth reporting that does not fail the command,
// such as committing an unchanged resource set.
type Warning string

func (warning Warning) Error() string { return string(warning) }

func IsWarning(err error) bool {
	var warning Warning
	return errors.As(err, &warning)
}
