// Package problem provides the types that are stored in a performance
// database: ConvProblem, a convolution problem description used as record
// KEY, and PerfConfig, the integer tunables a solver stores as VALUES.
//
// Both implement codec.ISerializable and codec.IDeserializable:
//
//	problem := problem.ConvProblem{Batch: 1, InChannels: 3, ...}
//	db.Store(database, problem, "ConvAsm3x3U", problem.NewPerfConfig(3, 4, 4, 1))
//
//	config := problem.PerfConfig{Arity: 3}
//	if db.Load(database, problem, "ConvAsm3x3U", &config) { ... }
package problem
