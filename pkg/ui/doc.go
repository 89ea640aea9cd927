// Package ui renders what the user sees during a run: styled one-line
// notices on a Console and a single progress bar for the download phase.
//
// Both degrade gracefully when output is redirected. Console drops its
// escape codes and NewProgress returns nil, which is safe to call.
package ui
