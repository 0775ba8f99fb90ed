// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the video catalog:
//  1. [CatalogView] : Browse the published catalog
//  2. [DetailView] : Inspect a video's metadata
//  3. [ConfirmView] : Confirm opening playback in the browser
//  4. [ResultView] : Display the outcome
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Playback resolution runs through the VideoEngine so watches land in local history.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
