package engine

import (
	"context"
	"iter"
	"sync"
	"time"

	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// RouteAnimator replays planner routes as a paced sequence of agent positions. It owns the
// agent position across replays; progress belongs to the replay in flight.
type RouteAnimator struct {
	mu        sync.RWMutex
	position  models.MPosition
	remaining []models.MPosition
	progress  models.MAnimationProgress
	label     string

	Pacer  Pacer
	Step   time.Duration
	Dwell  time.Duration
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRouteAnimator(start models.MPosition, pacer Pacer, step, dwell time.Duration, log *logger.Logger) *RouteAnimator {
	if pacer == nil {
		pacer = TimerPacer{}
	}
	if log == nil {
		log = logger.NewLogger(nil, "RouteAnimator")
	}
	return &RouteAnimator{
		position: start,
		Pacer:    pacer,
		Step:     step,
		Dwell:    dwell,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

func (a *RouteAnimator) Position() models.MPosition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.position
}

// SetPosition moves the agent without animation, e.g. to the branch entrance.
func (a *RouteAnimator) SetPosition(p models.MPosition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.position = p
}

func (a *RouteAnimator) Progress() models.MAnimationProgress {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.progress
}

// Remaining returns a copy of the waypoints still ahead in the current segment.
func (a *RouteAnimator) Remaining() []models.MPosition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.MPosition(nil), a.remaining...)
}

// -----------------------------------------------------------------------------

// Replay walks every segment in order. Each waypoint yields a frame and waits Step; the end of
// a segment yields an arrived frame and waits Dwell. Segments without waypoints are skipped.
// When final is set the agent snaps there after the last segment.
//
// A pacer failure (normally ctx cancellation) is yielded once as the error and ends the replay.
func (a *RouteAnimator) Replay(ctx context.Context, segments []models.MRouteSegment, final *models.MPosition) iter.Seq2[models.MAnimationFrame, error] {
	return func(yield func(models.MAnimationFrame, error) bool) {
		total := 0
		for _, seg := range segments {
			total += len(seg.Waypoints)
		}

		a.mu.Lock()
		a.progress = models.MAnimationProgress{CurrentStep: 0, TotalSteps: total}
		a.remaining = nil
		a.label = ""
		a.mu.Unlock()

		if total > 0 {
			if !yield(a.frame(-1, false, false), nil) {
				return
			}
		}

		for i, seg := range segments {
			if len(seg.Waypoints) == 0 {
				a.Logger.Warning("Segment %d (%s) has no waypoints, skipping", i, seg.Label)
				continue
			}

			for j, wp := range seg.Waypoints {
				a.mu.Lock()
				a.position = wp
				a.progress.CurrentStep++
				a.remaining = append([]models.MPosition(nil), seg.Waypoints[j+1:]...)
				a.label = seg.Label
				a.mu.Unlock()

				if !yield(a.frame(i, false, false), nil) {
					return
				}
				if err := a.Pacer.Wait(ctx, a.Step); err != nil {
					yield(models.MAnimationFrame{}, err)
					return
				}
			}

			a.mu.Lock()
			a.remaining = nil
			a.mu.Unlock()

			if !yield(a.frame(i, true, false), nil) {
				return
			}
			if err := a.Pacer.Wait(ctx, a.Dwell); err != nil {
				yield(models.MAnimationFrame{}, err)
				return
			}
		}

		if final != nil {
			a.mu.Lock()
			a.position = *final
			a.remaining = nil
			a.label = ""
			a.mu.Unlock()
			yield(a.frame(-1, false, true), nil)
		}
	}
}

// -----------------------------------------------------------------------------

func (a *RouteAnimator) frame(segment int, arrived, final bool) models.MAnimationFrame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return models.MAnimationFrame{
		Position:     a.position,
		Remaining:    append([]models.MPosition{}, a.remaining...),
		Progress:     a.progress,
		SegmentLabel: a.label,
		SegmentIndex: segment,
		Arrived:      arrived,
		Final:        final,
	}
}
