package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/webrag"
	"github.com/fwojciec/webrag/pipeline"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	return ask(deps, strings.Join(c.Question, " "))
}

func ask(deps *Dependencies, question string) error {
	answer, err := deps.Session.Ask(deps.Ctx, question)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webrag.ErrorMessage(err))
		if webrag.ErrorCode(err) == webrag.ESTATE && deps.Session.State() == pipeline.StateUninitialized {
			fmt.Fprintln(deps.Stderr, "Hint: Run 'webrag init URL' to index a website first")
		}
		return err
	}
	deps.Render.Answer(deps.Stdout, answer)
	return nil
}
