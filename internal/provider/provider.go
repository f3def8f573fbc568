// Package provider defines the resource provider the interpreter consumes:
// account enumeration, folder listing and link minting for a remote
// hierarchical store.
package provider

import (
	"context"

	"textdrive/internal/models"
)

// Account is one linked account as shown in the root listing.
type Account struct {
	ID      string
	Service string
	Label   string
}

// Entry is one child of a folder or account root.
type Entry struct {
	Kind models.ChoiceKind
	ID   string
	Name string
}

// Provider enumerates accounts, lists folder contents and mints shareable
// links. Calls are synchronous; any failure is terminal for the command
// that made it.
type Provider interface {
	ListAccounts(ctx context.Context, identity string) ([]Account, error)
	ListChildren(ctx context.Context, accountID, folderID string) ([]Entry, error)
	CreateLink(ctx context.Context, accountID, fileID string) (string, error)
}

// AccountDirectory resolves linked accounts for the S3 provider. The
// session store satisfies this.
type AccountDirectory interface {
	AccountsFor(identity string) ([]models.StorageAccount, error)
	Account(id string) (*models.StorageAccount, error)
}
