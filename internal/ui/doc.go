// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for curating staged rows:
//  1. [StagingListView] : Browse, filter, select, and edit staged rows
//  2. [EditRowView] : Inline-edit one row's metadata fields
//  3. [MatchReviewView] : Review the matched/unmatched partition
//  4. [CreateLibraryView] : Name the library before committing
//  5. [ResultView] : Display the committed library or the failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Every mutation round-trips through the staging engine, so a view
// only changes after the server has confirmed and a fresh snapshot arrived.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
