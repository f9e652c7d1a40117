package main

import (
	"bufio"
	"fmt"
	"strings"
)

const chatHelp = `Type a question and press enter. Commands:
  /init URL   index a website, replacing the current index
  /status     show the indexed website
  /reset      drop the index
  /quit       leave`

// Run executes the chat command. Failed questions are reported and the
// loop continues; only input errors end the session early.
func (c *ChatCmd) Run(deps *Dependencies) error {
	if c.URL != "" {
		if err := initialize(deps, c.URL); err != nil {
			return err
		}
	}
	fmt.Fprintln(deps.Stdout, chatHelp)

	scanner := bufio.NewScanner(deps.Stdin)
	for {
		fmt.Fprint(deps.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(deps.Stdout)
			return scanner.Err()
		}
		if err := deps.Ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(deps.Stdout, chatHelp)
		case "/init":
			if arg == "" {
				fmt.Fprintln(deps.Stderr, "usage: /init URL")
				continue
			}
			_ = initialize(deps, strings.TrimSpace(arg))
		case "/status":
			_ = (&StatusCmd{}).Run(deps)
		case "/reset":
			_ = (&ResetCmd{Force: true}).Run(deps)
		default:
			_ = ask(deps, line)
		}
		fmt.Fprintln(deps.Stdout)
	}
}
