// Package bulkdelete empties object storage containers with bounded
// concurrency.
//
// A run has two phases. Plan drains the container listing into an
// immutable batch; Execute deletes every object of that batch with at most
// the configured number of requests in flight and returns a summary once
// each object has an outcome. Per-object failures never abort the batch.
// Objects that are already gone count as successes.
//
// Azure Blob Storage, Amazon S3 and MinIO are supported:
//
//	client, err := bulkdelete.Open(ctx, bdtypes.StorageConfig{
//	    Backend:          "azure",
//	    ConnectionString: connStr,
//	}, bulkdelete.WithConcurrencyLimit(20))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	plan, err := client.Plan(ctx, "logs")
//	if err != nil {
//	    return err
//	}
//	summary, err := client.Execute(ctx, plan)
package bulkdelete
