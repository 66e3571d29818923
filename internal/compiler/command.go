package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"
)

// FilePlaceholder is replaced by "{target}.tex" in every command token.
const FilePlaceholder = "%FILE%"

// DefaultCommand is the build command used when none is configured.
const DefaultCommand = "latexmk -pdf " + FilePlaceholder

// ErrEmptyCommand is returned for a build command without any tokens.
var ErrEmptyCommand = errors.New("build command is empty")

// Command is a build command template: an argument vector whose tokens may
// contain FilePlaceholder.
type Command struct {
	Args []string
}

// ParseCommand tokenizes a command string with shell quoting rules, so
// `pdflatex "my paper.tex"` yields two arguments. No variables are expanded.
func ParseCommand(s string) (Command, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(s)
	if err != nil {
		return Command{}, fmt.Errorf("parse build command %q: %w", s, err)
	}
	if len(args) == 0 {
		return Command{}, ErrEmptyCommand
	}
	return Command{Args: args}, nil
}

// MustParseCommand is ParseCommand for constants known to be valid.
func MustParseCommand(s string) Command {
	c, err := ParseCommand(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether no command was set.
func (c Command) IsZero() bool {
	return len(c.Args) == 0
}

// Expand substitutes the placeholder with the target document file name.
func (c Command) Expand(target string) []string {
	file := target + ".tex"
	argv := make([]string, len(c.Args))
	for i, a := range c.Args {
		argv[i] = strings.ReplaceAll(a, FilePlaceholder, file)
	}
	return argv
}

// String renders the template for logs.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// UnmarshalJSON accepts either a command string or a list of literal arguments.
func (c *Command) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseCommand(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var args []string
	if err := json.Unmarshal(data, &args); err != nil {
		return fmt.Errorf("build_command must be a string or a list of strings: %w", err)
	}
	if len(args) == 0 {
		return ErrEmptyCommand
	}
	c.Args = args
	return nil
}

// MarshalJSON writes the literal argument list.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Args)
}

// UnmarshalYAML accepts either a scalar command string or a sequence of arguments.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		parsed, err := ParseCommand(node.Value)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := node.Decode(&args); err != nil {
			return err
		}
		if len(args) == 0 {
			return ErrEmptyCommand
		}
		c.Args = args
		return nil
	default:
		return fmt.Errorf("build_command must be a string or a list of strings (line %d)", node.Line)
	}
}

// MarshalYAML writes the literal argument list.
func (c Command) MarshalYAML() (any, error) {
	return c.Args, nil
}
