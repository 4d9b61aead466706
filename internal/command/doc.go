// Package command models the get/set commands of the line protocol and
// generates randomized command streams.
//
// # Basic Usage
//
//	keys := command.KeySpace{"key1", "key2", "key3"}
//	gen := command.NewGenerator(keys, rand.New(rand.NewSource(42)))
//
//	cmd := gen.Next()
//	wire := cmd.Wire() // "get key2\n" or "set key1=value17\n"
//
// # Distribution
//
// Keys are drawn uniformly from the KeySpace. Each command is a Get with
// probability GetRatio (0.99) and a Set otherwise; Set values are "value"
// followed by an integer in [1, 1000]. Given the same seed the stream is
// identical, which keeps harness runs reproducible.
package command
