package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the reset command.
func (c *ResetCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm reset\n")
		return webrag.Errorf(webrag.EINVALID, "use --force to confirm reset")
	}
	if err := deps.Session.Reset(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, "Index dropped")
	return nil
}
