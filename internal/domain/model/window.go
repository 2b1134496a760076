package model

import (
	"fmt"
	"time"
)

type WindowState string

const (
	WindowTooEarly WindowState = "TOO_EARLY"
	WindowEarly    WindowState = "EARLY"
	WindowOnTime   WindowState = "ON_TIME"
	WindowLate     WindowState = "LATE"
	WindowTooLate  WindowState = "TOO_LATE"
)

// MessageKey is the i18n key for the state's message.
func (s WindowState) MessageKey() string {
	switch s {
	case WindowTooEarly:
		return "window.too_early"
	case WindowEarly:
		return "window.early"
	case WindowLate:
		return "window.late"
	case WindowTooLate:
		return "window.too_late"
	default:
		return "window.on_time"
	}
}

// Blocks reports whether confirmation is refused in this state.
func (s WindowState) Blocks() bool { return s == WindowTooEarly || s == WindowTooLate }

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// WindowStatus is the classification of one evaluation instant. Minutes is
// the figure quoted by the message: minutes until the allowed start for
// TOO_EARLY, minutes before the window for EARLY, minutes after it for LATE,
// zero otherwise.
type WindowStatus struct {
	Status   WindowState `json:"status"`
	Message  string      `json:"message"`
	Severity Severity    `json:"severity"`
	Minutes  int         `json:"minutes"`

	AllowedStart time.Time `json:"allowed_start"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	AllowedEnd   time.Time `json:"allowed_end"`
}

// EvaluateWindow classifies now against the tolerance-extended pickup
// window. A nil slot or policy yields a nil status, meaning no timing
// constraint applies. The slot is resolved in loc (time.Local when nil).
func EvaluateWindow(now time.Time, slot *PickupSlot, policy *TolerancePolicy, loc *time.Location) (*WindowStatus, error) {
	if slot == nil || policy == nil {
		return nil, nil
	}
	windowStart, windowEnd, err := slot.Bounds(loc)
	if err != nil {
		return nil, err
	}

	ws := &WindowStatus{
		AllowedStart: windowStart.Add(-policy.Early()),
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		AllowedEnd:   windowEnd.Add(policy.Late()),
	}

	switch {
	case now.Before(ws.AllowedStart):
		ws.Status = WindowTooEarly
		ws.Minutes = ceilMinutes(ws.AllowedStart.Sub(now))
		ws.Message = fmt.Sprintf("Confirmation is not available yet. You can confirm in %d minutes.", ws.Minutes)
	case now.After(ws.AllowedEnd):
		ws.Status = WindowTooLate
		ws.Message = "The confirmation window has expired."
	case now.Before(windowStart):
		ws.Status = WindowEarly
		ws.Minutes = floorMinutes(windowStart.Sub(now))
		ws.Message = fmt.Sprintf("Early pickup: confirmation allowed %d minutes before the scheduled window.", ws.Minutes)
	case now.After(windowEnd):
		ws.Status = WindowLate
		ws.Minutes = floorMinutes(now.Sub(windowEnd))
		ws.Message = fmt.Sprintf("Late pickup: confirmation allowed %d minutes after the scheduled window.", ws.Minutes)
	default:
		ws.Status = WindowOnTime
		ws.Message = "The pickup window is open."
	}
	ws.Severity = severityOf(ws.Status)
	return ws, nil
}

func severityOf(s WindowState) Severity {
	switch s {
	case WindowTooEarly, WindowTooLate:
		return SeverityError
	case WindowEarly, WindowLate:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// d must be positive.
func ceilMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}

func floorMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
