package internal

import "strings"

// ConsoleCommand is one line typed by the user, split into the command
// word and the rest of the line.
type ConsoleCommand struct {
	cmd string
	arg string
}

func NewConsoleCommand(line string) ConsoleCommand {
	cmd, arg := parseCommand(line)
	return ConsoleCommand{
		cmd: strings.ToLower(cmd),
		arg: arg,
	}
}

func parseCommand(s string) (string, string) {
	s = strings.TrimSpace(s)
	space := strings.IndexAny(s, " \t")
	if space == -1 {
		return s, ""
	}
	return s[:space], strings.TrimSpace(s[space+1:])
}
