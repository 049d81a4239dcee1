// Package table manages the destination table of a load.
//
// The table name is a single identifier taken verbatim from the user and quoted
// with pgx.Identifier, so names with spaces, capitals, dots or quotes are
// created exactly as given and can never inject SQL. Schema-qualified names are
// not split: "staging.trips" is one table named staging.trips in the search_path schema.
//
// # Example Usage
//
//	mgr := table.New()
//
//	err := mgr.Replace(ctx, tx, "yellow_taxi_data", schema)
//	n, err := mgr.Append(ctx, tx, "yellow_taxi_data", batch)
//
// # Thread Safety
//
// Manager is stateless; thread safety depends on the injected connection.
package table
