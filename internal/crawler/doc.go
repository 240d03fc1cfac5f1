// Package crawler drives a subdomain discovery run against GitHub code search.
//
// # Architecture
//
// The Orchestrator walks an ordered query plan built from the target's
// keyword. For each query it requests result pages one after another and,
// for every page, downloads the raw contents of the files it has not seen
// yet with a bounded number of concurrent workers (errgroup with SetLimit).
// Each body is scanned with the run's pattern and new domains are added to
// a FoundDomainSet.
//
// # Policy
//
// Per page:
//   - no credential available: wait ExhaustionWait and retry, or stop the
//     run with ErrCredentialsExhausted when StopOnExhaustion is set
//   - search rate limited: disable the credential for Cooldown, pause
//     RateLimitPause, retry the same page with a fresh credential
//   - search network or transient error: pause ErrorPause and abandon the
//     query (later queries still run)
//   - empty page: the query is complete
//   - download rate limited: disable the credential; other download
//     failures are counted as misses
//
// A PageDelay pause follows every page of results.
//
// # Components
//
//   - Orchestrator: the query and page loops and the download fan-out
//   - VisitedSet: result files already scheduled, shared across queries
//   - FoundDomainSet: discovered domains, insert-if-absent
//   - BuildPlan: the query plan
//
// # Usage
//
//	o := crawler.New(client, pool, crawler.DefaultConfig(),
//		crawler.WithLogger(logger),
//		crawler.WithOnDomain(func(d string) { fmt.Println(d) }),
//	)
//	report, err := o.Run(ctx, "example.com", pat)
package crawler
