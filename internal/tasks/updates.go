package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Upload Phase = iota
	Encode
	FetchCatalog
	FetchMine
	FetchRequests
	Export
)

func (p Phase) String() string {
	switch p {
	case Upload:
		return "upload"
	case Encode:
		return "encode"
	case FetchCatalog:
		return "fetch_catalog"
	case FetchMine:
		return "fetch_mine"
	case FetchRequests:
		return "fetch_requests"
	case Export:
		return "export"
	default:
		return ""
	}
}

func uploadingUpdate(percent float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    int(percent),
		Total:   100,
		Message: fmt.Sprintf("Uploading... %.0f%%", percent),
	}
}

func encodingUpdate(progress int, status string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Encode,
		Step:    progress,
		Total:   100,
		Message: fmt.Sprintf("Encoding (%s)... %d%%", status, progress),
	}
}

func fetchUpdate(phase Phase, step, total int, what string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s...", what),
	}
}

func exportingUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Exporting %s...", title),
	}
}

func exportFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Export,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Export of %s failed: %v", title, err),
	}
}
