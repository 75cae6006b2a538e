// Package tray provides a system tray menu for starting live sessions and
// opening the dashboard.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(running bool) error
	onDashboard func()
	onQuit      func()
	running     bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuSession *systray.MenuItem
	menuLast    *systray.MenuItem
}

// New creates a new Tray with no session running.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback used to start (true) or stop (false) a live
// session. A start error leaves the tray idle.
func (t *Tray) OnToggle(fn func(running bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback for the dashboard menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("RepCoach")
	systray.SetTooltip("RepCoach workout assistant")

	t.mu.Lock()
	t.menuSession = systray.AddMenuItem(sessionTitle(false), "Start or stop a live session")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(LastTitle(-1, 0), "Last finished session")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit RepCoach")

	go func() {
		for {
			select {
			case <-t.menuSession.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func sessionTitle(running bool) string {
	if running {
		return "■ Stop Session"
	}
	return "▶ Start Live Session"
}

// LastTitle formats the last-session menu item. reps below 0 means no
// session has finished yet.
func LastTitle(reps float64, seconds float64) string {
	if reps < 0 {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %g reps in %.0fs", reps, seconds)
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.running
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(want); err != nil {
			return
		}
	}
	t.SetRunning(want)
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetRunning updates the session item, for sessions that end on their own.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = running
	if t.menuSession != nil {
		t.menuSession.SetTitle(sessionTitle(running))
	}
}

// SetLast shows the result of the last finished session.
func (t *Tray) SetLast(reps, seconds float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLast != nil {
		t.menuLast.SetTitle(LastTitle(reps, seconds))
	}
}

// IsRunning reports whether the tray believes a session is running.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}
