package cmd

import "github.com/3leaps/gofetch/pkg/objecturi"

// ObjectURI, ParseURI, and the URI parsing sentinel errors are re-exported
// from pkg/objecturi so the CLI and the public library facade (pkg/gofetch)
// share one parser.
type ObjectURI = objecturi.ObjectURI

var ParseURI = objecturi.Parse

var (
	ErrInvalidURI          = objecturi.ErrInvalidURI
	ErrUnsupportedProvider = objecturi.ErrUnsupportedProvider
	ErrMissingBucket       = objecturi.ErrMissingBucket
)
