// Package pagination drives the WMS address listing page by page.
//
// The listing endpoint reports whether another page exists through its
// hasNext flag, so pages are fetched strictly in sequence: page n+1 is only
// requested after page n was received and normalized.
//
// Example usage:
//
//	fetcher := pagination.NewFetcher(wmsClient, pagination.DefaultConfig(), reporter)
//	result, err := fetcher.FetchAll(ctx, token, unitID)
//
// The fetcher:
//   - Starts at page 1 with a fixed page size of 500
//   - Stops on empty items (empty or success) or hasNext=false (success)
//   - Stops on the first HTTP or transport failure, discarding partial data
//   - Enforces a page ceiling against servers that never end
//   - Reports progress after every processed page
package pagination
