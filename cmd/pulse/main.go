package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/kolide/kit/logutil"
	"github.com/kolide/kit/version"
	"github.com/pkg/errors"
)

var subcommandNames = []string{"run", "sessions", "week", "version"}

func main() {
	var logger log.Logger
	logger = log.NewJSONLogger(os.Stderr) // only used until options are parsed.

	subcommand, args := splitSubcommand(os.Args[1:])

	var run func([]string) error
	switch subcommand {
	case "run":
		run = runHeartbeat
	case "sessions":
		run = runSessions
	case "week":
		run = runWeek
	case "version":
		run = func([]string) error {
			version.PrintFull()
			return nil
		}
	default:
		logutil.Fatal(logger, "err", errors.Errorf("unknown subcommand %q, expected one of %s", subcommand, strings.Join(subcommandNames, ", ")))
	}

	if err := run(args); err != nil {
		logutil.Fatal(logger, "err", errors.Wrapf(err, "running subcommand %s", subcommand), "stack", fmt.Sprintf("%+v", err))
	}
}

// splitSubcommand returns the subcommand named by the first argument. With
// no subcommand, or when the first argument is a flag, it is "run".
func splitSubcommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "run", args
	}
	return args[0], args[1:]
}
