package tasks

import (
	"fmt"

	"github.com/desertthunder/spotdl/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	State   State         // Pipeline state the run just entered
	Step    int           // Tracks seen so far in the run
	Total   int           // Tracks known so far in the run (grows page by page)
	Message string        // Human-readable message for display
	Track   *models.Track // Track being processed, if any
	Data    any           // Optional state-specific data
}

// State is a pipeline state.
type State int

const (
	Idle State = iota
	Authenticating
	FetchingPage
	ResolvingTrack
	Downloading
	Tagging
	NextTrack
	NextPage
	Done
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case FetchingPage:
		return "fetching_page"
	case ResolvingTrack:
		return "resolving_track"
	case Downloading:
		return "downloading"
	case Tagging:
		return "tagging"
	case NextTrack:
		return "next_track"
	case NextPage:
		return "next_page"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func authenticatingUpdate(c models.Collection) ProgressUpdate {
	return ProgressUpdate{
		State:   Authenticating,
		Message: fmt.Sprintf("Authenticating for %s %s...", c.Kind, c.ID),
	}
}

func fetchingPageUpdate(page, seen int) ProgressUpdate {
	return ProgressUpdate{
		State:   FetchingPage,
		Step:    seen,
		Total:   seen,
		Message: fmt.Sprintf("Fetching page %d...", page),
	}
}

func nextPageUpdate(seen int, next string) ProgressUpdate {
	return ProgressUpdate{
		State:   NextPage,
		Step:    seen,
		Total:   seen,
		Message: "Following next page...",
		Data:    next,
	}
}

func trackUpdate(state State, step, total int, tr *models.Track) ProgressUpdate {
	var verb string
	switch state {
	case ResolvingTrack:
		verb = "Searching"
	case Downloading:
		verb = "Downloading"
	case Tagging:
		verb = "Tagging"
	default:
		verb = "Processing"
	}
	return ProgressUpdate{
		State:   state,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s - %s", step, total, verb, tr.ArtistDisplay(), tr.Title),
		Track:   tr,
	}
}

func trackDoneUpdate(step, total int, res *TrackResult) ProgressUpdate {
	mark := "✓"
	if res.Outcome != Downloaded {
		mark = "✗"
	}
	return ProgressUpdate{
		State:   NextTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s (%s)", step, total, mark, res.Track.ArtistDisplay(), res.Track.Title, res.Outcome),
		Track:   &res.Track,
		Data:    res,
	}
}

func finishedUpdate(result *RunResult, err error) ProgressUpdate {
	total := len(result.Tracks)
	if err != nil {
		return ProgressUpdate{
			State:   Error,
			Step:    total,
			Total:   total,
			Message: fmt.Sprintf("Stopped after %d tracks: %v", total, err),
			Data:    result,
		}
	}
	return ProgressUpdate{
		State:   Done,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Done: %d downloaded, %d failed", result.Downloaded, result.Failed),
		Data:    result,
	}
}
