package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/model"
)

type pickPurpose int

const (
	pickSwitch pickPurpose = iota
	pickRemove
	pickShowKey
)

var pickTitles = map[pickPurpose]string{
	pickSwitch:  "picker.switch_title",
	pickRemove:  "picker.remove_title",
	pickShowKey: "picker.show_key_title",
}

// pickerModel is a single-choice list of profiles.
type pickerModel struct {
	purpose   pickPurpose
	profiles  []model.Profile
	cursor    int
	cancelled bool
}

func newPickerModel(purpose pickPurpose, profiles []model.Profile) pickerModel {
	return pickerModel{purpose: purpose, profiles: profiles}
}

// Update returns the chosen profile once enter is pressed.
func (m pickerModel) Update(msg tea.Msg) (pickerModel, *model.Profile) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "esc", "q":
		m.cancelled = true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.profiles)-1 {
			m.cursor++
		}
	case "enter":
		p := m.profiles[m.cursor]
		return m, &p
	}
	return m, nil
}

func (m pickerModel) View() string {
	lines := []string{titleStyle.Render(i18n.T(pickTitles[m.purpose]))}
	for i, p := range m.profiles {
		label := p.String()
		if p.Active {
			label += " " + i18n.T("list.active_marker")
		}
		if i == m.cursor {
			lines = append(lines, selectedItemStyle.Render("▸ "+label))
		} else {
			lines = append(lines, itemStyle.Render("  "+label))
		}
	}
	lines = append(lines, "", helpStyle.Render(i18n.T("help.picker")))
	return strings.Join(lines, "\n")
}

// addSubmitMsg is emitted by the form when the user submits it.
type addSubmitMsg struct {
	name  string
	email string
}

// formModel collects name and email for a new profile.
type formModel struct {
	focusIndex int
	inputs     []textinput.Model // 0: name, 1: email
	err        string
}

func newFormModel() formModel {
	m := formModel{inputs: make([]textinput.Model, 2)}
	for i := range m.inputs {
		t := textinput.New()
		t.Cursor.Style = focusedStyle
		t.CharLimit = 128
		t.Width = 40
		switch i {
		case 0:
			t.Prompt = i18n.T("form.name")
			t.Placeholder = "Ada Lovelace"
		case 1:
			t.Prompt = i18n.T("form.email")
			t.Placeholder = "ada@example.com"
		}
		m.inputs[i] = t
	}
	m.inputs[0].Focus()
	m.inputs[0].TextStyle = focusedStyle
	return m
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch s := k.String(); s {
		case "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "tab", "shift+tab", "enter", "up", "down":
			if s == "enter" && m.focusIndex == len(m.inputs) {
				name := strings.TrimSpace(m.inputs[0].Value())
				email := strings.TrimSpace(m.inputs[1].Value())
				if name == "" || email == "" {
					m.err = i18n.T("form.required")
					return m, nil
				}
				return m, func() tea.Msg { return addSubmitMsg{name: name, email: email} }
			}
			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}
			cmds := make([]tea.Cmd, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].TextStyle = focusedStyle
					continue
				}
				m.inputs[i].Blur()
				m.inputs[i].TextStyle = lipgloss.NewStyle()
			}
			return m, tea.Batch(cmds...)
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m formModel) View() string {
	lines := []string{titleStyle.Render(i18n.T("form.title"))}
	for i := range m.inputs {
		lines = append(lines, m.inputs[i].View())
	}
	button := itemStyle.Render(i18n.T("form.submit"))
	if m.focusIndex == len(m.inputs) {
		button = selectedItemStyle.Render(i18n.T("form.submit"))
	}
	lines = append(lines, "", button)
	if m.err != "" {
		lines = append(lines, "", errorStyle.Render(m.err))
	}
	lines = append(lines, "", helpStyle.Render(i18n.T("help.form")))
	return strings.Join(lines, "\n")
}

type confirmPurpose int

const (
	confirmRemove confirmPurpose = iota
	confirmRemoveAll
)

// confirmModel asks a yes/no question before a destructive action.
type confirmModel struct {
	purpose confirmPurpose
	target  model.Profile
}

// Update reports whether the user decided and, if so, whether they agreed.
func (m confirmModel) Update(msg tea.Msg) (yes, decided bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, false
	}
	switch strings.ToLower(k.String()) {
	case "y":
		return true, true
	case "n", "esc", "q":
		return false, true
	}
	return false, false
}

func (m confirmModel) View() string {
	question := i18n.T("remove_all.confirm")
	if m.purpose == confirmRemove {
		question = i18n.T("remove.confirm", m.target.String())
	}
	return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		specialStyle.Render(question),
		"",
		helpStyle.Render(i18n.T("help.confirm")),
	))
}
