// Package aggregate folds raw poll snapshots into the durable per-train
// records. It validates each row, derives the instance key, and hands
// the result to the store's conditional upsert; a malformed row is
// dropped with a warning while a store failure aborts the batch.
package aggregate
