package cli

import (
	"strconv"

	"github.com/roach88/sparkpad/internal/launchpad"
	"github.com/roach88/sparkpad/internal/store"
)

// openPad opens the database and wraps it in a launchpad. The caller
// closes the returned store.
func openPad(opts *RootOptions, padOpts ...launchpad.Option) (*store.Store, *launchpad.LaunchPad, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, launchpad.New(st, padOpts...), nil
}

// parseID parses a positional numeric id argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, "invalid "+what+" id: "+arg)
	}
	return id, nil
}
