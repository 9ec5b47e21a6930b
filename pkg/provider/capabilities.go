package provider

import (
	"context"
	"io"
)

// Optional provider capability interfaces, used for feature detection via
// type assertions. The core Provider interface stays intentionally small;
// download-only gofetch does not need ObjectPutter/ObjectDeleter/
// MultipartUploader (uploads are a spec Non-goal — see DESIGN.md).

// ObjectGetter can download objects as a stream.
//
// This is the fallback download path for providers whose ObjectFetcher
// doesn't offer multi-part range downloads.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) (body io.ReadCloser, contentLength int64, err error)
}

// PrefixLister is an alias for DelimiterLister (pkg/provider/delimiter.go),
// kept as a second name for feature-detection call sites that care about
// "can this provider enumerate prefixes" rather than the listing mechanics.
type PrefixLister = DelimiterLister
