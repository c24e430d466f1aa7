package cmd

import (
	"os"

	"github.com/hitzhangjie/tcgdbg/cmd/debug"
	"github.com/hitzhangjie/tcgdbg/pkg/bridge"
	"github.com/hitzhangjie/tcgdbg/pkg/config"
	"github.com/hitzhangjie/tcgdbg/pkg/logger"
	"github.com/hitzhangjie/tcgdbg/pkg/target"
)

// startSession installs the guest breakpoint bridge on dbp and runs the
// interactive shell until the user exits.
func startSession(conf *config.Config, dbp *target.DebuggedProcess) error {
	b, err := bridge.New(conf.Bridge, os.Stdout)
	if err != nil {
		return err
	}

	// a tracee without the helpers is still debuggable, setbrk just can't
	// resolve pending guest addresses
	if _, err = b.Install(dbp); err != nil {
		logger.Warn("%v, pending guest breakpoints won't resolve", err)
	}

	target.DBPProcess = dbp
	debug.CurrentSession = debug.NewDebugSession(b).AtExit(debug.Cleanup)
	debug.CurrentSession.Start()
	return nil
}
