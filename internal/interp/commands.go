package interp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"textdrive/internal/models"
)

// list enumerates the current location and rebuilds the choice list. This
// is the only place choice indices become valid.
func (h *Handler) list(ctx context.Context, identity string, state *models.NavState, _ []string) (string, error) {
	var b strings.Builder

	if state.AtRoot() {
		accounts, err := h.provider.ListAccounts(ctx, identity)
		if err != nil {
			return "", &CmdError{Kind: ErrProvider, Detail: fmt.Sprintf("could not list your accounts: %v", err)}
		}

		choices := make([]models.Choice, 0, len(accounts))
		b.WriteString("Available accounts, use 'cd <index>' to pick one:\n")
		for i, a := range accounts {
			choices = append(choices, models.Choice{
				Kind:  models.KindAccount,
				ID:    a.ID,
				Label: a.Service + "," + a.Label,
			})
			fmt.Fprintf(&b, "%d: %s,%s\n", i, a.Service, a.Label)
		}
		state.LastChoices = choices
		return b.String(), nil
	}

	if state.SelectedAccount == "" {
		return "", &CmdError{
			Kind:   ErrMissingAccount,
			Detail: "You do not have an account selected, please 'reset' your session and select one",
		}
	}

	entries, err := h.provider.ListChildren(ctx, state.SelectedAccount, state.Location)
	if err != nil {
		return "", &CmdError{Kind: ErrProvider, Detail: fmt.Sprintf("could not list this directory: %v", err)}
	}

	choices := make([]models.Choice, 0, len(entries))
	b.WriteString("Folders/Files in this directory:\n")
	for i, e := range entries {
		choices = append(choices, models.Choice{Kind: e.Kind, ID: e.ID, Label: e.Name})
		fmt.Fprintf(&b, "%d: %s,%s\n", i, e.Kind, e.Name)
	}
	state.LastChoices = choices
	return b.String(), nil
}

// changeDir handles 'cd ..' and 'cd <index>'. A successful transition
// always ends with a fresh listing of the new location.
func (h *Handler) changeDir(ctx context.Context, identity string, state *models.NavState, args []string) (string, error) {
	if args[0] == ".." {
		if !state.Ascend() {
			return "Already at top level directory", nil
		}
		state.LastChoices = nil
		return h.list(ctx, identity, state, nil)
	}

	choice, err := h.resolveChoice(ctx, identity, state, args[0])
	if err != nil {
		return "", err
	}

	switch choice.Kind {
	case models.KindAccount:
		state.SelectedAccount = choice.ID
		state.Descend(models.AccountRoot)
	case models.KindFile:
		return "", &CmdError{
			Kind:   ErrInvalidChoice,
			Detail: "your choice was not a folder, please make a different choice",
		}
	default:
		// Any non-file container kind navigates like a folder.
		state.Descend(choice.ID)
	}

	state.LastChoices = nil
	return h.list(ctx, identity, state, nil)
}

// getLink mints a shareable link for a chosen file.
func (h *Handler) getLink(ctx context.Context, identity string, state *models.NavState, args []string) (string, error) {
	choice, url, err := h.mintLink(ctx, identity, state, args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Here is a link to your file %s: %s", choice.Label, url), nil
}

// sendLink mints a link like getLink and delivers it to a third party.
// Delivery failure is its own outcome: the link itself was already minted.
func (h *Handler) sendLink(ctx context.Context, identity string, state *models.NavState, args []string) (string, error) {
	dest := args[1]
	choice, url, err := h.mintLink(ctx, identity, state, args[0])
	if err != nil {
		return "", err
	}

	body := fmt.Sprintf("%s sent you a link to a file %s: %s", identity, choice.Label, url)
	if err := h.messenger.Send(ctx, dest, h.number, body); err != nil {
		return "", &CmdError{Kind: ErrDelivery, Detail: fmt.Sprintf("delivery to %s failed: %v", dest, err)}
	}
	return "Ok, message sent", nil
}

// reset unconditionally returns the session to its initial state.
func (h *Handler) reset(_ context.Context, _ string, state *models.NavState, _ []string) (string, error) {
	state.Reset()
	return "OK", nil
}

// resolveChoice parses an index argument and resolves it against the
// current choice list, synthesizing the list with a fresh listing when
// none exists. Bounds are checked against whatever list is current at
// resolution time.
func (h *Handler) resolveChoice(ctx context.Context, identity string, state *models.NavState, arg string) (models.Choice, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return models.Choice{}, &CmdError{
			Kind:   ErrMalformedArgument,
			Detail: fmt.Sprintf("'%s' is not a valid index", arg),
		}
	}

	if len(state.LastChoices) == 0 {
		if _, err := h.list(ctx, identity, state, nil); err != nil {
			return models.Choice{}, err
		}
	}

	if idx >= len(state.LastChoices) {
		return models.Choice{}, &CmdError{
			Kind:   ErrIndexOutOfRange,
			Detail: fmt.Sprintf("index %d is out of range, there are %d choices", idx, len(state.LastChoices)),
		}
	}
	return state.LastChoices[idx], nil
}

// mintLink is the shared file-resolution and link-minting path of get and
// send. It validates the choice kind and account context before calling
// the provider, so a failed call leaves navigation state untouched.
func (h *Handler) mintLink(ctx context.Context, identity string, state *models.NavState, arg string) (models.Choice, string, error) {
	choice, err := h.resolveChoice(ctx, identity, state, arg)
	if err != nil {
		return models.Choice{}, "", err
	}

	if state.SelectedAccount == "" {
		return models.Choice{}, "", &CmdError{
			Kind:   ErrMissingAccount,
			Detail: "Please choose an account before you can get a file",
		}
	}

	if choice.Kind != models.KindFile {
		return models.Choice{}, "", &CmdError{
			Kind:   ErrInvalidChoice,
			Detail: "you can only get files, please choose a file",
		}
	}

	url, err := h.provider.CreateLink(ctx, state.SelectedAccount, choice.ID)
	if err != nil {
		return models.Choice{}, "", &CmdError{Kind: ErrProvider, Detail: fmt.Sprintf("could not create a link: %v", err)}
	}
	return choice, url, nil
}
