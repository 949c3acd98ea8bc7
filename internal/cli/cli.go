// Package cli is a small command runner for the poke tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// Exit codes returned by GetExitCode.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
)

// Handler runs a command.
type Handler func(ctx *Context) error

// Command is one node of the command tree.
type Command struct {
	Name        string
	Description string
	Usage       string
	Aliases     []string

	// Flags declares the command's flags on fs.
	Flags func(fs *pflag.FlagSet)
	Run   Handler

	Subcommands []*Command
}

func (c *Command) find(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name || slices.Contains(sub.Aliases, name) {
			return sub
		}
	}

	return nil
}

// Context is passed to a running command.
type Context struct {
	context.Context

	Command *Command
	Args    []string
	Flags   *pflag.FlagSet
	Out     io.Writer
	ErrOut  io.Writer
}

func (c *Context) Println(a ...any) {
	fmt.Fprintln(c.Out, a...)
}

func (c *Context) Printf(format string, a ...any) {
	fmt.Fprintf(c.Out, format, a...)
}

// Success prints a green check line.
func (c *Context) Success(format string, a ...any) {
	fmt.Fprintln(c.Out, Colorize(Green, "✓"), fmt.Sprintf(format, a...))
}

// Arg returns the i-th positional argument or def.
func (c *Context) Arg(i int, def string) string {
	if i < len(c.Args) {
		return c.Args[i]
	}

	return def
}

// Config configures an App.
type Config struct {
	Name        string
	Version     string
	Description string
	Output      io.Writer
	ErrOutput   io.Writer
}

// App routes arguments to commands.
type App struct {
	root    Command
	version string
	out     io.Writer
	errOut  io.Writer
}

// New creates an app.
func New(config Config) *App {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.ErrOutput == nil {
		config.ErrOutput = os.Stderr
	}

	return &App{
		root:    Command{Name: config.Name, Description: config.Description},
		version: config.Version,
		out:     config.Output,
		errOut:  config.ErrOutput,
	}
}

// AddCommand adds a top-level command.
func (a *App) AddCommand(cmd *Command) error {
	if a.root.find(cmd.Name) != nil {
		return fmt.Errorf("command already exists: %s", cmd.Name)
	}

	a.root.Subcommands = append(a.root.Subcommands, cmd)

	return nil
}

// Commands returns the top-level commands.
func (a *App) Commands() []*Command {
	return a.root.Subcommands
}

// Run executes the command named by args. args excludes the program name.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || (len(args) == 1 && isHelpFlag(args[0])) {
		a.printHelp(&a.root, nil)

		return nil
	}

	if len(args) == 1 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Fprintf(a.out, "%s version %s\n", a.root.Name, a.version)

		return nil
	}

	cmd := &a.root
	path := []string{}
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub := cmd.find(args[0])
		if sub == nil {
			break
		}
		cmd, path, args = sub, append(path, sub.Name), args[1:]
	}

	if cmd == &a.root {
		return NewError("unknown command: "+args[0], ExitUsageError)
	}

	fs := pflag.NewFlagSet(strings.Join(path, " "), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.Flags != nil {
		cmd.Flags(fs)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			a.printHelp(cmd, fs)

			return nil
		}

		return WrapError(err, "invalid arguments", ExitUsageError)
	}

	if cmd.Run == nil {
		a.printHelp(cmd, fs)

		return nil
	}

	return cmd.Run(&Context{
		Context: ctx,
		Command: cmd,
		Args:    fs.Args(),
		Flags:   fs,
		Out:     a.out,
		ErrOut:  a.errOut,
	})
}

func (a *App) printHelp(cmd *Command, fs *pflag.FlagSet) {
	if cmd.Description != "" {
		fmt.Fprintln(a.out, cmd.Description)
		fmt.Fprintln(a.out)
	}

	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	fmt.Fprintf(a.out, "%s %s\n", Colorize(Bold, "Usage:"), usage)

	if len(cmd.Subcommands) > 0 {
		fmt.Fprintf(a.out, "\n%s\n", Colorize(Bold, "Commands:"))
		for _, sub := range cmd.Subcommands {
			fmt.Fprintf(a.out, "  %-12s %s\n", sub.Name, sub.Description)
		}
	}

	if fs != nil && fs.HasFlags() {
		fmt.Fprintf(a.out, "\n%s\n%s", Colorize(Bold, "Flags:"), fs.FlagUsages())
	}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// Error carries a process exit code.
type Error struct {
	Message  string
	Cause    error
	ExitCode int
}

// NewError creates an error with an exit code.
func NewError(message string, code int) *Error {
	return &Error{Message: message, ExitCode: code}
}

// WrapError wraps err with a message and exit code.
func WrapError(err error, message string, code int) *Error {
	return &Error{Message: message, Cause: err, ExitCode: code}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}

	return ExitGeneralError
}

// FormatError renders err for the terminal.
func FormatError(err error) string {
	return Colorize(BoldRed, "Error:") + " " + err.Error()
}
