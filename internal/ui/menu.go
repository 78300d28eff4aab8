package ui

import (
	"errors"
	"fmt"
	"io"
)

type MenuOption struct {
	Title   string
	Handler func()
}

// ShowMenu prints the options and runs the chosen one until the exit entry is picked or
// input ends. An exit entry is appended to options.
func ShowMenu(options []MenuOption) {
	exit := false
	options = append(options, MenuOption{"Exit the application", func() {
		fmt.Fprintln(out, "Exiting...")
		exit = true
	}})

	for !exit {
		fmt.Fprintf(out, "%s===================%s\n", ColorBlue, ColorReset)
		for i, opt := range options {
			fmt.Fprintf(out, "%s%d. %s%s\n", ColorBlue, i+1, opt.Title, ColorReset)
		}

		choice, err := ReadInt("Please enter your choice: ", 1, len(options))
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			PrintError(err.Error())
			continue
		}
		options[choice-1].Handler()
	}
}
