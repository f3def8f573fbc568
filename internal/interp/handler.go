package interp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"textdrive/internal/messenger"
	"textdrive/internal/models"
	"textdrive/internal/provider"
)

const resetHint = "If you are unsure why this is happening, start over by sending 'reset'"

// command is one entry in the dispatch table.
type command struct {
	argc int
	run  func(ctx context.Context, identity string, state *models.NavState, args []string) (string, error)
}

// Handler interprets one-line navigation commands against a per-identity
// NavState. It does not persist anything itself: the caller owns loading
// the state before Handle and saving it afterwards, and must make sure no
// two commands for the same identity run concurrently.
type Handler struct {
	provider  provider.Provider
	messenger messenger.Messenger
	number    string
	commands  map[string]command
}

// NewHandler builds a command handler. number is the service's own sending
// number, used as the From address for 'send'.
func NewHandler(p provider.Provider, m messenger.Messenger, number string) *Handler {
	h := &Handler{
		provider:  p,
		messenger: m,
		number:    number,
	}
	h.commands = map[string]command{
		"ls":    {argc: 0, run: h.list},
		"cd":    {argc: 1, run: h.changeDir},
		"get":   {argc: 1, run: h.getLink},
		"send":  {argc: 2, run: h.sendLink},
		"reset": {argc: 0, run: h.reset},
	}
	return h
}

// Handle parses one inbound message body, routes it to the matching
// operation, and returns the text to deliver back to the identity. The
// state may be mutated; callers persist it after Handle returns.
func (h *Handler) Handle(ctx context.Context, identity string, state *models.NavState, body string) string {
	argv := strings.Fields(body)
	if len(argv) == 0 {
		return "Un-recognized command"
	}

	name := strings.ToLower(argv[0])
	cmd, ok := h.commands[name]
	if !ok {
		return "Un-recognized command"
	}

	args := argv[1:]
	if len(args) != cmd.argc {
		return errorText(&CmdError{
			Kind:   ErrMalformedArgument,
			Detail: fmt.Sprintf("'%s' takes %d argument(s), got %d", name, cmd.argc, len(args)),
		})
	}

	result, err := cmd.run(ctx, identity, state, args)
	if err != nil {
		log.Printf("Command '%s' failed for %s: %v", name, identity, err)
		return errorText(err)
	}
	return result
}

// errorText converts an operation failure into the user-facing response.
// Every branch ends with the reset guidance because reset is the one
// command that is guaranteed to succeed from any state.
func errorText(err error) string {
	var cerr *CmdError
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case ErrMissingAccount:
			return cerr.Detail + "\n\n" + resetHint
		case ErrDelivery:
			return "There was a problem sending your message, please check the destination number\n\n" + resetHint
		}
	}
	return fmt.Sprintf("Erroneous command: %s\n\n%s", err.Error(), resetHint)
}
