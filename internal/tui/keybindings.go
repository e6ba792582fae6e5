package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyBinding defines a key binding for a particular target type.
//
// If Handler is nil, the binding is shown in the help screen but is not
// dispatched through the key map.
type KeyBinding[T any] struct {
	Keys        []string
	Description string
	Handler     func(*T, tea.KeyMsg) tea.Cmd
}

// BindingCategory groups related key bindings (primarily for help display).
type BindingCategory[T any] struct {
	Name     string
	Bindings []KeyBinding[T]
}

// ModelKeyBindings returns the key bindings of the timeline view.
func ModelKeyBindings() []BindingCategory[Model] {
	return []BindingCategory[Model]{
		{
			Name: "General",
			Bindings: []KeyBinding[Model]{
				{
					Keys:        []string{"h", "?"},
					Description: "Toggle this help screen",
				},
				{
					Keys:        []string{"q", "ctrl+c"},
					Description: "Quit",
					Handler:     (*Model).handleQuit,
				},
			},
		},
		{
			Name: "Zoom",
			Bindings: []KeyBinding[Model]{
				{
					Keys:        []string{"+", "="},
					Description: "Zoom in",
					Handler:     (*Model).handleZoomIn,
				},
				{
					Keys:        []string{"-"},
					Description: "Zoom out",
					Handler:     (*Model).handleZoomOut,
				},
				{
					Keys:        []string{"f"},
					Description: "Toggle fit to window",
					Handler:     (*Model).handleToggleFit,
				},
			},
		},
		{
			Name: "Navigation",
			Bindings: []KeyBinding[Model]{
				{
					Keys:        []string{"left"},
					Description: "Scroll back",
					Handler:     (*Model).handlePanLeft,
				},
				{
					Keys:        []string{"right"},
					Description: "Scroll forward",
					Handler:     (*Model).handlePanRight,
				},
				{
					Keys:        []string{"home"},
					Description: "Jump to the start of the session",
					Handler:     (*Model).handleScrollToStart,
				},
				{
					Keys:        []string{"end"},
					Description: "Jump to the live edge",
					Handler:     (*Model).handleScrollToEnd,
				},
				{
					Keys:        []string{"up"},
					Description: "Focus previous row",
					Handler:     (*Model).handleFocusUp,
				},
				{
					Keys:        []string{"down"},
					Description: "Focus next row",
					Handler:     (*Model).handleFocusDown,
				},
			},
		},
		{
			Name: "Selection",
			Bindings: []KeyBinding[Model]{
				{
					Keys:        []string{"space"},
					Description: "Select the last visible sample of the focused row",
					Handler:     (*Model).handleToggleSample,
				},
				{
					Keys:        []string{"t"},
					Description: "Select that timestamp on every row",
					Handler:     (*Model).handleToggleTimestamp,
				},
				{
					Keys:        []string{"x"},
					Description: "Clear selection",
					Handler:     (*Model).handleClearSelection,
				},
			},
		},
		{
			Name: "Display",
			Bindings: []KeyBinding[Model]{
				{
					Keys:        []string{"r"},
					Description: "Toggle elapsed/wall-clock time labels",
					Handler:     (*Model).handleToggleRelativeTime,
				},
				{
					Keys:        []string{"<"},
					Description: "Narrow the row name column",
					Handler:     (*Model).handleNarrowNames,
				},
				{
					Keys:        []string{">"},
					Description: "Widen the row name column",
					Handler:     (*Model).handleWidenNames,
				},
			},
		},

		mouseCategory[Model](),
	}
}

// buildKeyMap builds a fast lookup map from key string to handler.
func buildKeyMap[T any](categories []BindingCategory[T]) map[string]func(*T, tea.KeyMsg) tea.Cmd {
	keyMap := make(map[string]func(*T, tea.KeyMsg) tea.Cmd)
	for _, category := range categories {
		for _, binding := range category.Bindings {
			if binding.Handler == nil {
				continue
			}
			for _, key := range binding.Keys {
				keyMap[normalizeKey(key)] = binding.Handler
			}
		}
	}
	return keyMap
}

// normalizeKey normalizes Bubble Tea's KeyMsg.String() into a stable key
// used by our maps.
func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

func mouseCategory[T any]() BindingCategory[T] {
	return BindingCategory[T]{
		Name: "Mouse",
		Bindings: []KeyBinding[T]{
			{
				Keys:        []string{"move"},
				Description: "Highlight the sample under the pointer",
			},
			{
				Keys:        []string{"click"},
				Description: "Select the sample, or the timestamp on the axis",
			},
			{
				Keys:        []string{"wheel"},
				Description: "Zoom in/out",
			},
		},
	}
}
