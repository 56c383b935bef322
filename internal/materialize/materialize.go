// Package materialize downloads 1Password documents to local files.
package materialize

import (
	"context"
	"errors"

	"github.com/systmms/opsync/internal/config"
	dserrors "github.com/systmms/opsync/internal/errors"
	"github.com/systmms/opsync/internal/onepassword"
	"github.com/systmms/opsync/internal/secure"
)

// Fetcher retrieves raw document content.
type Fetcher interface {
	Document(ctx context.Context, scope onepassword.Scope) ([]byte, error)
}

// Materializer writes fetched documents verbatim to their destination.
type Materializer struct {
	fetcher Fetcher
}

// New creates a Materializer backed by fetcher.
func New(fetcher Fetcher) *Materializer {
	return &Materializer{fetcher: fetcher}
}

// Materialize fetches the document of a file work item and writes it to the
// item's destination. The fetch completes before the destination is touched.
func (m *Materializer) Materialize(ctx context.Context, item config.WorkItem) error {
	scope := onepassword.Scope{
		Account: item.Account,
		Vault:   item.Vault,
		Item:    item.SecretItem(),
	}

	doc, err := m.fetcher.Document(ctx, scope)
	if err != nil {
		return err
	}

	buf, err := secure.NewSecureBuffer(doc)
	if err != nil {
		return &dserrors.DocumentError{Item: scope.Item, Err: err}
	}
	defer buf.Destroy()

	if err := buf.WriteFile(item.Destination, item.Perm()); err != nil {
		if errors.Is(err, secure.ErrUnseal) {
			return &dserrors.DocumentError{Item: scope.Item, Err: err}
		}
		return &dserrors.WriteError{Path: item.Destination, Err: err}
	}
	return nil
}
