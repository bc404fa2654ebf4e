// Package docsearch provides an embeddable Go client for tenant-isolated
// full-text document search on OpenSearch.
//
// The client runs the same admission control and tenant scoping as the
// docsearch HTTP API, in process:
//
//	client, err := docsearch.New(ctx,
//	    docsearch.WithOpenSearch("http://localhost:9200"),
//	    docsearch.WithRateLimit(120),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	docs := client.Documents("acme")
//	_, _ = docs.Create(ctx, "invoice-7", "Invoice", "Q1 numbers")
//	res, _ := client.Search("acme").Query(ctx, "invoice", 10)
//
// Every tenant gets its own fixed one-minute request window. Calls past the
// limit fail with ErrQuotaExceeded; errors.As with *QuotaExceededError
// exposes the retry delay.
package docsearch
