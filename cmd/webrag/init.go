package main

import (
	"fmt"

	"github.com/fwojciec/webrag"
)

// Run executes the init command.
func (c *InitCmd) Run(deps *Dependencies) error {
	return initialize(deps, c.URL)
}

func initialize(deps *Dependencies, url string) error {
	fmt.Fprintf(deps.Stdout, "Indexing %s\n", url)
	site, err := deps.Session.Initialize(deps.Ctx, url)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s failed: %s\n", deps.Session.Stage(), webrag.ErrorMessage(err))
		return err
	}
	deps.Render.Site(deps.Stdout, site)
	return nil
}
