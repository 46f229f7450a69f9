package views

import (
	"github.com/tgienger/rooted/internal/clock"
	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/planner"
)

// Backend is what the views read from and act on
type Backend struct {
	DB      *db.DB
	Engine  *engine.Engine
	Planner *planner.Planner
	Clock   clock.Clock
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
