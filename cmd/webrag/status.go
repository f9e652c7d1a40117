package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	site, err := deps.Store.ActiveSite(deps.Ctx)
	if webrag.ErrorCode(err) == webrag.ENOTFOUND {
		fmt.Fprintln(deps.Stdout, "No website indexed. Use 'webrag init URL' to index one.")
		return nil
	} else if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		return err
	}
	deps.Render.Site(deps.Stdout, site)
	return nil
}
