// Package batch groups book sections into the contiguous batches that are
// translated together in one round.
package batch
