// Package kernel provides the scoring primitives restraints are built on.
//
// The package defines the model that owns particles and their attributes,
// and the interfaces restraints implement:
//
//   - [Model]: container of particles and float attributes (with derivatives)
//   - [Restraint]: a scoring term over some particles of a model
//   - [ScoreAccumulator]: collects weighted scores and, optionally, derivatives
//   - [RestraintSet]: weighted group of restraints, itself a restraint
//   - [ScoringFunction]: evaluates several restraints and keeps a breakdown
//
// # Example
//
//	m := kernel.NewModel()
//	p := m.AddParticle("p")
//	core.SetupXYZ(m, p, algebra.NewVector3D(1, 2, 3))
//	r := foo.NewMyRestraint(m, p, 10)
//	score, _ := kernel.Evaluate(r, true)
//
// # Thread Safety
//
// Models are NOT thread-safe. Evaluating restraints mutates derivative
// attributes, so a model must be owned by a single goroutine.
package kernel
