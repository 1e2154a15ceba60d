// Package benchmark provides performance benchmarks for TokVault.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run with a specific vault size:
//
//	go test -bench='BenchmarkDetokenize/entries_100000' -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
