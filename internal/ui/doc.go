// Package ui renders pipeline progress and summaries for the terminal with lipgloss styles.
//
// [Watch] drains a [tasks.ProgressUpdate] channel and prints one styled line per track outcome.
// [Palette] holds the named styles; [Plain] disables color for files and pipes.
package ui
