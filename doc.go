// Package graphin is a small GraphQL client for issuing queries and
// mutations over HTTP, with an optional time-to-live response cache and
// aggregated reporting of GraphQL errors:
//
//   - Queries travel as <endpoint>?query=<percent-encoded text>; GET for queries, POST for mutations
//   - Responses can be cached per client or per call; the cache key is the literal request URL
//   - Every error in a response's "errors" list is kept in one *QueryError
//   - Pluggable Transport, CacheStore and Logger; Prometheus metrics and OpenTelemetry spans
//
// Typical usage:
//
//	client, err := graphin.New("https://api.example.com/graphql",
//	    graphin.WithCache(time.Minute),
//	    graphin.WithVerbose(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, err := client.Query(ctx, `{ viewer { login } }`)
//
// A per-call option overrides the client-wide setting for that call only:
//
//	data, err = client.Query(ctx, q, graphin.NoCache(), graphin.Header("Authorization", token))
//
// Nothing is retried. Transport failures, non-2xx statuses and GraphQL errors
// are returned to the caller as they occur; use errors.As with *ClientError or
// *QueryError to tell them apart.
package graphin
