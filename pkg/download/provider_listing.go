package download

import (
	"context"

	"github.com/3leaps/gofetch/pkg/provider"
)

// providerListing adapts a provider.Provider (the AWS S3 provider, or any
// other implementation) to the Listing capability the Lister consumes.
type providerListing struct {
	p provider.Provider
}

// NewProviderListing wraps p as a Listing capability.
func NewProviderListing(p provider.Provider) Listing {
	return providerListing{p: p}
}

func (l providerListing) ListPage(ctx context.Context, prefix, continuationToken string) (Page, error) {
	res, err := l.p.List(ctx, provider.ListOptions{
		Prefix:            prefix,
		ContinuationToken: continuationToken,
	})
	if err != nil {
		return Page{}, err
	}

	keys := make([]string, len(res.Objects))
	for i, obj := range res.Objects {
		keys[i] = obj.Key
	}

	return Page{
		Keys:              keys,
		ContinuationToken: res.ContinuationToken,
		IsTruncated:       res.IsTruncated,
	}, nil
}
