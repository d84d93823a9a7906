package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/akeren/digitalcraft-dispatch/internal/form"
	"github.com/spf13/cobra"
)

type field struct {
	name     string
	label    string
	required bool
	choices  []string
}

func bindFields(cmd *cobra.Command, fields []field) {
	for _, f := range fields {
		cmd.Flags().String(f.name, "", f.label)
	}
}

// fill copies flag values into the state, then asks on stdin for any
// required field still empty.
func fill(cmd *cobra.Command, app *cliApp, state *form.State, fields []field) error {
	for _, f := range fields {
		if v, _ := cmd.Flags().GetString(f.name); v != "" {
			state.Set(f.name, v)
		}
	}

	scanner := bufio.NewScanner(app.in)
	for _, f := range fields {
		if !f.required || strings.TrimSpace(state.Get(f.name)) != "" {
			continue
		}

		value, err := ask(scanner, app.out, f)
		if err != nil {
			return err
		}
		state.Set(f.name, value)
	}

	return nil
}

func ask(scanner *bufio.Scanner, out io.Writer, f field) (string, error) {
	for i, c := range f.choices {
		fmt.Fprintf(out, "  %2d) %s\n", i+1, c)
	}
	fmt.Fprintf(out, "%s: ", f.label)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%s is required", f.name)
	}

	answer := strings.TrimSpace(scanner.Text())
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(f.choices) {
		return f.choices[n-1], nil
	}
	if answer == "" {
		return "", fmt.Errorf("%s is required", f.name)
	}
	return answer, nil
}
