// Package catalog holds the prompt builders, one per category. Builders are
// pure: every input they render (elapsed time, place name, alert text) is
// passed in by the caller.
package catalog

import (
	"fmt"

	"github.com/matthewbaird/waypoint/internal/types"
)

// Place is an optionally resolved place label. The zero value is "unresolved"
// and renders as nothing.
type Place struct {
	name string
}

// NamedPlace returns a resolved place. An empty name is treated as unresolved.
func NamedPlace(name string) Place { return Place{name: name} }

// Name returns the label and whether one was resolved.
func (p Place) Name() (string, bool) { return p.name, p.name != "" }

// at renders " at <name>" or "".
func (p Place) at() string {
	if p.name == "" {
		return ""
	}
	return " at " + p.name
}

// sub returns the name as a sub-text pointer, nil when unresolved.
func (p Place) sub() *string {
	if p.name == "" {
		return nil
	}
	return str(p.name)
}

// FormatDuration renders seconds as "N sec", "N min", "1 hr", "N hrs" or
// "H hr M min".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%d sec", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, rem := minutes/60, minutes%60
	switch {
	case rem == 0 && hours == 1:
		return "1 hr"
	case rem == 0:
		return fmt.Sprintf("%d hrs", hours)
	}
	return fmt.Sprintf("%d hr %d min", hours, rem)
}

// ReturningGreeting picks the welcome-back line for a whole number of days away.
func ReturningGreeting(days int64) string {
	switch {
	case days <= 1:
		return "Hey, welcome back!"
	case days < 7:
		return fmt.Sprintf("Back at it! Been %d days.", days)
	case days < 30:
		return "Good to see you again!"
	}
	return "Welcome back, driver!"
}

func str(s string) *string { return &s }

func seconds(n int) *int { return &n }

func option(emoji, label, value string) types.PromptOption {
	return types.PromptOption{Emoji: emoji, Label: label, Value: value}
}

func acknowledge(label string) []types.PromptOption {
	return []types.PromptOption{option("👍", label, "acknowledged")}
}

func spotOptions() []types.PromptOption {
	return []types.PromptOption{
		option("😴", "Solid", "solid"),
		option("😐", "Meh", "meh"),
		option("😬", "Sketch", "sketch"),
	}
}

func flowOptions(arrived string) []types.PromptOption {
	return []types.PromptOption{
		option("🏃", "Moving", "moving"),
		option("🐢", "Slow", "slow"),
		option("🧊", "Dead", "dead"),
		option("🤷", arrived, "just_arrived"),
	}
}

const (
	welcomeText  = "Welcome to Waypoint! 🚛"
	spotQuestion = "How's the spot?"
	flowQuestion = "How's it looking?"
	onTheMap     = "You're on the map. Drive safe!"
	updatedText  = "✓ Location updated"
)
