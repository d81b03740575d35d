// Package viz draws a running particle simulation in the terminal.
//
// [Model] is a Bubble Tea model that steps the simulation on a timer and
// plots every particle onto a braille [Canvas], optionally with the
// quad-tree cells of the current step drawn underneath.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Advance one step while paused
//	G     - Toggle quad-tree grid
//	R     - Reseed particles
//	M     - Switch between Barnes-Hut and direct summation
//	+/-   - Widen/narrow the opening angle
//	Q     - Quit
package viz
