package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/spotdl/internal/tasks"
)

// Watch prints pipeline progress to w until updates is closed.
//
// Only track outcomes, page changes and the final state are printed; intermediate
// per-track states are shown when verbose is set.
func Watch(w io.Writer, updates <-chan tasks.ProgressUpdate, p *Palette, verbose bool) {
	for u := range updates {
		if line := Line(u, p, verbose); line != "" {
			fmt.Fprintln(w, line)
		}
	}
}

// Line renders one progress update, or "" when it should not be shown.
func Line(u tasks.ProgressUpdate, p *Palette, verbose bool) string {
	switch u.State {
	case tasks.Authenticating, tasks.FetchingPage, tasks.NextPage:
		return p.Help(u.Message)
	case tasks.NextTrack:
		if res, ok := u.Data.(*tasks.TrackResult); ok {
			switch {
			case res.Outcome != tasks.Downloaded:
				return p.Err(u.Message)
			case res.TagErr != nil:
				return p.Warn(u.Message + " [untagged]")
			}
		}
		return p.OK(u.Message)
	case tasks.Done:
		return p.Title(u.Message)
	case tasks.Error:
		return p.Err(u.Message)
	default:
		if verbose {
			return u.Message
		}
		return ""
	}
}
