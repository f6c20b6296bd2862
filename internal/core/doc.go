// Package core provides decorators and general-purpose restraints.
//
//   - [XYZ]: Cartesian coordinates (and their derivatives) of a particle
//   - [HarmonicPointRestraint]: harmonic well pulling a particle to a point
package core
