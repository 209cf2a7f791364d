// Package anilist fetches upcoming theatrical anime releases from the AniList
// GraphQL API.
//
// # Architecture
//
// The package is organized into two layers:
//
//   - Client: issues the fixed page query for one page number and validates the
//     response against a strict schema
//   - Paginator: walks pages 1..N in order until AniList reports no further
//     pages, optionally reading and writing each page through a cache.Adapter
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := anilist.NewClient(logger, anilist.WithTimeout(30*time.Second))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store := cache.NewMemoryStore(256)
//	paginator := anilist.NewPaginator(client, logger,
//		anilist.WithCache(cache.NewAdapter(store, logger), 24*time.Hour),
//	)
//
//	media, err := paginator.FetchAll(ctx)
//
// # Error Handling
//
// A page fetch fails with one of:
//
//   - *TransportError: the request did not complete or returned a non-2xx status
//   - *ShapeError: the payload does not match the expected page schema
//   - *EmptyResultError: a successful response without a data payload
//
// FetchAll additionally fails with *PaginationLimitError when AniList keeps
// reporting more pages past the configured ceiling. Any failure aborts the whole
// listing; there are no partial results.
//
//	var terr *anilist.TransportError
//	if errors.As(err, &terr) && terr.IsRateLimited() {
//		// back off
//	}
package anilist
