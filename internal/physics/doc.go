// Package physics implements the softened gravitational force law and the
// conserved quantities used to judge a run.
//
//   - [Law]: Plummer-softened pairwise force, returned directly as a
//     velocity increment
//   - [DirectAccumulate]: exact O(n^2) summation, the reference the
//     quad-tree approximation is measured against
//   - [TotalEnergy], [Momentum], [AngularMomentum]: diagnostics over a
//     particle set
//
// # Units
//
// [Law.Between] folds the division by the subject's mass and the global
// Scale factor into its result, so the value added to a particle's
// velocity each step is
//
//	scale/m1 * G*m1*m2 / (r^2 + eps^2)^1.5 * unit(p2 - p1)
//
// Energies are reported in the same scaled units.
package physics
