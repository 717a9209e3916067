package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCommand = errors.New("Unknown command")

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdCancel
	CmdRemove
	CmdClear
	CmdLog
	CmdQuit
)

// Command is one line of dashboard input. N is the 1-based display position
// for commands that take one.
type Command struct {
	Kind CommandKind
	N    int
}

// Parse reads commands of the form c<n>, r<n>, l<n>, C and q. Blank input
// parses to CmdNone.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CmdNone}, nil
	}

	switch line[0] {
	case 'q', 'Q':
		return Command{Kind: CmdQuit}, nil
	case 'C':
		return Command{Kind: CmdClear}, nil
	case 'c', 'r', 'l':
		n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
		if err != nil || n <= 0 {
			return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
		}
		kind := map[byte]CommandKind{'c': CmdCancel, 'r': CmdRemove, 'l': CmdLog}[line[0]]
		return Command{Kind: kind, N: n}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
}
