package stats

import (
	"context"

	"github.com/verte-zerg/flowrite/internal/model"
)

// SessionLister is the part of the store history reporting needs.
type SessionLister interface {
	ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.WritingSession, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.WritingSession
	Summary  Summary
	// Window holds the sessions the trend curve smooths over.
	Window int
}

// BuildReport loads and summarizes sessions matching filter.
func BuildReport(ctx context.Context, st SessionLister, filter model.HistoryFilter) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	window := filter.CurveWindow
	if window <= 0 {
		window = 1
	}
	return Report{
		Sessions: sessions,
		Summary:  Summarize(sessions),
		Window:   window,
	}, nil
}
