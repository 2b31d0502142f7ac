// Package tui implements the terminal variable-edit dialog: a Bubble Tea
// model binding key events to edit-session operations, one event per
// operation, with the listing re-rendered after every change.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmachale/scenforge/internal/editor/session"
	"github.com/tmachale/scenforge/internal/editor/varedit"
	"github.com/tmachale/scenforge/internal/scenario/variable"
)

type mode int

const (
	modeList mode = iota
	modeEditValue
	modeAddBasic
	modeAddModifier
	modeError
)

// Model is the dialog state. It owns the edit session for its lifetime;
// Committed and Changed are inspected by the caller after the program
// exits.
type Model struct {
	sess *session.Session
	reg  *variable.Registry

	entries []varedit.Entry
	cursor  int
	mode    mode

	input      string // value text buffer while editing
	pickIDs    []string
	pickCursor int
	targetIdx  int // index into variable.Targets() while adding a modifier

	status string
	errMsg string
	width  int
	height int

	Committed bool
	Changed   bool
}

// New creates the dialog model over an open session.
//
// Precondition: sess must be open and reg must be the registry the
// session was opened against.
func New(sess *session.Session, reg *variable.Registry) Model {
	m := Model{sess: sess, reg: reg}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// refresh recomputes the listing from the edit set and keeps the cursor
// on a valid row.
func (m *Model) refresh() {
	m.entries = m.sess.Set().Entries()
	m.cursor = clampCursor(m.cursor, len(m.entries))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeEditValue:
			return m.updateEditValue(msg)
		case modeAddBasic, modeAddModifier:
			return m.updatePicker(msg)
		case modeError:
			m.mode = modeList
			m.errMsg = ""
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	set := m.sess.Set()
	m.status = ""

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.sess.Cancel()
		return m, tea.Quit

	case "tab":
		_ = set.SelectCategory(nextCategory(set.Categories(), set.Active(), +1))
		m.cursor = 0
		m.refresh()
	case "shift+tab":
		_ = set.SelectCategory(nextCategory(set.Categories(), set.Active(), -1))
		m.cursor = 0
		m.refresh()

	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.entries))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.entries))

	case "enter", "e":
		if len(m.entries) > 0 {
			m.input = m.entries[m.cursor].CurrentText()
			m.mode = modeEditValue
		}

	case "a":
		m.pickIDs = availableBasicIDs(m.reg, set.Active(), m.entries)
		if len(m.pickIDs) == 0 {
			m.status = "every known variable already has a basic value"
			break
		}
		m.pickCursor = 0
		m.mode = modeAddBasic

	case "m":
		if !set.Active().SupportsModifiers() {
			m.status = "this category does not support modifiers"
			break
		}
		m.pickIDs = m.reg.IDs(set.Active())
		if len(m.pickIDs) == 0 {
			m.status = "no variables defined for this category"
			break
		}
		m.pickCursor = 0
		m.targetIdx = 0
		m.mode = modeAddModifier

	case "d", "delete":
		if len(m.entries) > 0 {
			e := m.entries[m.cursor]
			set.RemoveEntry(e.ID, e.Target)
			m.refresh()
		}

	case "r":
		if len(m.entries) > 0 {
			e := m.entries[m.cursor]
			if err := set.ResetEntry(e.ID, e.Target); err != nil {
				return m.fail(err)
			}
			m.refresh()
		}
	case "R":
		set.ResetCategory()
		m.refresh()
	case "ctrl+r":
		set.ResetAll()
		m.refresh()

	case "ctrl+s":
		changed, err := m.sess.Commit(context.Background())
		if err != nil {
			// Validation failures and repository errors both leave the
			// session open; the overlay shows the cause and editing resumes.
			return m.fail(err)
		}
		m.Committed = true
		m.Changed = changed
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateEditValue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input = ""
	case "enter":
		parsed, err := varedit.ParseValue(m.input)
		if err != nil {
			return m.fail(err)
		}
		e := m.entries[m.cursor]
		// The input control clamps; the edit set stores what it is given.
		if err := m.sess.Set().SetValue(e.ID, e.Target, variable.Clamp(parsed.Value)); err != nil {
			return m.fail(err)
		}
		m.mode = modeList
		m.input = ""
		m.refresh()
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		s := msg.String()
		if len(s) == 1 && strings.ContainsAny(s, "0123456789+-") {
			m.input += s
		}
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
	case "up", "k":
		m.pickCursor = clampCursor(m.pickCursor-1, len(m.pickIDs))
	case "down", "j":
		m.pickCursor = clampCursor(m.pickCursor+1, len(m.pickIDs))
	case "left", "h":
		if m.mode == modeAddModifier {
			m.targetIdx = wrapIndex(m.targetIdx-1, len(variable.Targets()))
		}
	case "right", "l":
		if m.mode == modeAddModifier {
			m.targetIdx = wrapIndex(m.targetIdx+1, len(variable.Targets()))
		}
	case "enter":
		id := m.pickIDs[m.pickCursor]
		var err error
		if m.mode == modeAddBasic {
			err = m.sess.Set().AddBasicValue(id)
		} else {
			err = m.sess.Set().AddModifierValue(id, variable.Targets()[m.targetIdx])
		}
		if err != nil {
			return m.fail(err)
		}
		m.mode = modeList
		m.refresh()
	}
	return m, nil
}

// fail switches to the error overlay; the next key returns to the list.
func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.errMsg = err.Error()
	m.mode = modeError
	return m, nil
}

// clampCursor keeps a selection index inside [0, n); an empty list pins
// it at 0.
func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	if cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// wrapIndex wraps i around [0, n).
func wrapIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// nextCategory returns the category step positions after (or before)
// active in cats, wrapping around.
func nextCategory(cats []variable.Category, active variable.Category, step int) variable.Category {
	for i, c := range cats {
		if c == active {
			return cats[wrapIndex(i+step, len(cats))]
		}
	}
	return active
}

// availableBasicIDs returns the registry ids of cat that have no basic
// value in the listing yet, in ordinal order.
func availableBasicIDs(reg *variable.Registry, cat variable.Category, entries []varedit.Entry) []string {
	present := make(map[string]bool)
	for _, e := range entries {
		if !e.IsModifier() {
			present[e.ID] = true
		}
	}
	var out []string
	for _, id := range reg.IDs(cat) {
		if !present[id] {
			out = append(out, id)
		}
	}
	return out
}
