// Package viz renders scores and gradients in the terminal.
//
//   - [Profile]: energy profile of a coordinate scan (asciigraph)
//   - [Report]: table of an evaluation result (lipgloss)
//   - [LiveModel]: bubbletea program driving a minimization step by step
package viz
