package infra

import (
	"errors"
	"strings"

	"github.com/google/shlex"
	"github.com/msaeedsaeedi/commander/internal/domain"
)

// SplitCommand turns a command line into a program and its arguments.
//
// SplitLiteral cuts on every single space and keeps empty fields, so quoting
// is not understood: `echo "a b"` becomes ["echo", `"a`, `b"`]. SplitShell
// tokenizes with POSIX shell rules instead.
func SplitCommand(command string, mode domain.SplitMode) (string, []string, error) {
	var argv []string
	switch mode {
	case domain.SplitShell:
		tokens, err := shlex.Split(command)
		if err != nil {
			return "", nil, err
		}
		argv = tokens
	default:
		argv = strings.Split(command, " ")
	}

	if len(argv) == 0 || argv[0] == "" {
		return "", nil, errors.New("command produced empty program name")
	}
	return argv[0], argv[1:], nil
}
