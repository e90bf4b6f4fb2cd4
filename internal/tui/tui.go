// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui is the interactive menu of gitswitch. The top-level model
// routes between the menu and small sub-views; every action is delegated to
// a Service, normally a *core.Switcher.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/gitswitch/internal/core"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/model"
	"github.com/toeirei/gitswitch/internal/ui"
)

// Service is the part of the switcher the menu drives.
type Service interface {
	Profiles(ctx context.Context) ([]model.Profile, error)
	InactiveProfiles(ctx context.Context) ([]model.Profile, error)
	AddProfile(ctx context.Context, name, email string) (core.AddResult, error)
	SwitchTo(ctx context.Context, email string) (core.SwitchResult, error)
	RemoveProfile(ctx context.Context, email string) (core.RemoveResult, error)
	RemoveAll(ctx context.Context, confirmed bool) (core.RemoveAllResult, error)
	PublicKey(ctx context.Context, email string) ([]byte, error)
	Current(ctx context.Context) (core.CurrentIdentity, error)
	Status(ctx context.Context) (model.DriftReport, error)
}

type viewState int

const (
	menuView viewState = iota
	pickView
	addView
	confirmView
	textView
)

type menuAction int

const (
	actSwitch menuAction = iota
	actAdd
	actRemove
	actRemoveAll
	actList
	actShowKey
	actCurrent
	actStatus
	actQuit
)

var menuLabels = []string{
	"menu.switch",
	"menu.add",
	"menu.remove",
	"menu.remove_all",
	"menu.list",
	"menu.show_key",
	"menu.current",
	"menu.status",
	"menu.quit",
}

// headerMsg carries the active profile for the menu header.
type headerMsg struct {
	active *model.Profile
	count  int
	err    error
}

// pickMsg opens the picker for purpose with the loaded profiles.
type pickMsg struct {
	purpose  pickPurpose
	profiles []model.Profile
	err      error
}

// resultMsg ends an action and returns to the menu with a status line.
type resultMsg struct {
	text string
	warn string
	err  error
}

// textMsg shows a read-only page.
type textMsg struct {
	title string
	body  string
	err   error
}

type backToMenuMsg struct{}

type mainModel struct {
	ctx     context.Context
	svc     Service
	state   viewState
	cursor  int
	picker  pickerModel
	form    formModel
	confirm confirmModel
	page    textMsg

	active *model.Profile
	count  int

	status    string
	statusErr bool
	warn      string
	width     int
}

func newMainModel(ctx context.Context, svc Service) mainModel {
	return mainModel{ctx: ctx, svc: svc, state: menuView}
}

// Run starts the interactive menu and blocks until the user quits.
func Run(ctx context.Context, svc Service) error {
	_, err := tea.NewProgram(newMainModel(ctx, svc), tea.WithContext(ctx)).Run()
	return err
}

func (m mainModel) Init() tea.Cmd {
	return m.refreshHeaderCmd()
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case headerMsg:
		if msg.err != nil {
			m.setStatus("", msg.err)
		}
		m.active, m.count = msg.active, msg.count
		return m, nil
	case backToMenuMsg:
		m.state = menuView
		return m, nil
	case resultMsg:
		m.state = menuView
		m.setStatus(msg.text, msg.err)
		m.warn = msg.warn
		return m, m.refreshHeaderCmd()
	case pickMsg:
		return m.openPicker(msg), nil
	case textMsg:
		if msg.err != nil {
			m.state = menuView
			m.setStatus("", msg.err)
			return m, nil
		}
		m.page = msg
		m.state = textView
		return m, nil
	case addSubmitMsg:
		return m, m.addCmd(msg.name, msg.email)
	}

	switch m.state {
	case pickView:
		return m.updatePicker(msg)
	case addView:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	case confirmView:
		return m.updateConfirm(msg)
	case textView:
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "esc", "q", "enter":
				m.state = menuView
			}
		}
		return m, nil
	default:
		return m.updateMenu(msg)
	}
}

func (m *mainModel) setStatus(text string, err error) {
	m.warn = ""
	if err != nil {
		m.status = i18n.T("error.generic", err)
		m.statusErr = true
		return
	}
	m.status = text
	m.statusErr = false
}

func (m mainModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuLabels)-1 {
			m.cursor++
		}
	case "enter":
		m.status, m.warn = "", ""
		switch menuAction(m.cursor) {
		case actSwitch:
			return m, m.loadPickCmd(pickSwitch)
		case actAdd:
			m.state = addView
			m.form = newFormModel()
			return m, m.form.Init()
		case actRemove:
			return m, m.loadPickCmd(pickRemove)
		case actRemoveAll:
			m.state = confirmView
			m.confirm = confirmModel{purpose: confirmRemoveAll}
		case actList:
			return m, m.listCmd()
		case actShowKey:
			return m, m.loadPickCmd(pickShowKey)
		case actCurrent:
			return m, m.currentCmd()
		case actStatus:
			return m, m.statusCmd()
		case actQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m mainModel) openPicker(msg pickMsg) tea.Model {
	m.state = menuView
	if msg.err != nil {
		m.setStatus("", msg.err)
		return m
	}
	if len(msg.profiles) == 0 {
		if msg.purpose == pickSwitch {
			m.setStatus(i18n.T("switch.no_other_accounts"), nil)
		} else {
			m.setStatus(i18n.T("list.empty"), nil)
		}
		return m
	}
	m.picker = newPickerModel(msg.purpose, msg.profiles)
	m.state = pickView
	return m
}

func (m mainModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	p, chosen := m.picker.Update(msg)
	m.picker = p
	if p.cancelled {
		m.state = menuView
		return m, nil
	}
	if chosen == nil {
		return m, nil
	}
	switch p.purpose {
	case pickSwitch:
		return m, m.switchCmd(chosen.Email)
	case pickRemove:
		m.state = confirmView
		m.confirm = confirmModel{purpose: confirmRemove, target: *chosen}
		return m, nil
	default:
		return m, m.showKeyCmd(*chosen)
	}
}

func (m mainModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	yes, decided := m.confirm.Update(msg)
	if !decided {
		return m, nil
	}
	if !yes {
		m.state = menuView
		m.setStatus(i18n.T("remove_all.cancelled"), nil)
		return m, nil
	}
	if m.confirm.purpose == confirmRemoveAll {
		return m, m.removeAllCmd()
	}
	return m, m.removeCmd(m.confirm.target.Email)
}

func (m mainModel) View() string {
	var body string
	switch m.state {
	case pickView:
		body = m.picker.View()
	case addView:
		body = m.form.View()
	case confirmView:
		body = m.confirm.View()
	case textView:
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.page.title),
			m.page.body,
			"",
			helpStyle.Render(i18n.T("help.back")),
		)
	default:
		body = m.menuView()
	}
	return docStyle.Render(body)
}

func (m mainModel) menuView() string {
	lines := []string{banner(), ""}
	if m.active != nil {
		lines = append(lines, i18n.T("menu.active", successStyle.Render(m.active.String()), m.count))
	} else {
		lines = append(lines, specialStyle.Render(i18n.T("menu.no_active", m.count)))
	}
	lines = append(lines, "")
	for i, key := range menuLabels {
		if i == m.cursor {
			lines = append(lines, selectedItemStyle.Render("▸ "+i18n.T(key)))
		} else {
			lines = append(lines, itemStyle.Render("  "+i18n.T(key)))
		}
	}
	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		lines = append(lines, "", style.Render(m.status))
	}
	if m.warn != "" {
		lines = append(lines, specialStyle.Render(m.warn))
	}
	lines = append(lines, "", helpStyle.Render(i18n.T("help.menu")))
	return strings.Join(lines, "\n")
}

func (m mainModel) refreshHeaderCmd() tea.Cmd {
	return func() tea.Msg {
		all, err := m.svc.Profiles(m.ctx)
		if err != nil {
			return headerMsg{err: err}
		}
		msg := headerMsg{count: len(all)}
		for i := range all {
			if all[i].Active {
				msg.active = &all[i]
			}
		}
		return msg
	}
}

func (m mainModel) loadPickCmd(purpose pickPurpose) tea.Cmd {
	return func() tea.Msg {
		var (
			profiles []model.Profile
			err      error
		)
		if purpose == pickSwitch {
			profiles, err = m.svc.InactiveProfiles(m.ctx)
		} else {
			profiles, err = m.svc.Profiles(m.ctx)
		}
		return pickMsg{purpose: purpose, profiles: profiles, err: err}
	}
}

func (m mainModel) addCmd(name, email string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.AddProfile(m.ctx, name, email)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: ui.DescribeAdd(res), warn: ui.MirrorWarning(res.MirrorErr)}
	}
}

func (m mainModel) switchCmd(email string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.SwitchTo(m.ctx, email)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: ui.DescribeSwitch(res), warn: ui.MirrorWarning(res.MirrorErr)}
	}
}

func (m mainModel) removeCmd(email string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.RemoveProfile(m.ctx, email)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: ui.DescribeRemove(res), warn: ui.MirrorWarning(res.MirrorErr)}
	}
}

func (m mainModel) removeAllCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.RemoveAll(m.ctx, true)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: ui.DescribeRemoveAll(res), warn: ui.MirrorWarning(res.MirrorErr)}
	}
}

func (m mainModel) listCmd() tea.Cmd {
	return func() tea.Msg {
		all, err := m.svc.Profiles(m.ctx)
		if err != nil {
			return textMsg{err: err}
		}
		if len(all) == 0 {
			return textMsg{title: i18n.T("list.title"), body: helpStyle.Render(i18n.T("list.empty"))}
		}
		var b strings.Builder
		for _, p := range all {
			if p.Active {
				fmt.Fprintf(&b, "%s %s\n", successStyle.Render("● "+p.String()), helpStyle.Render(i18n.T("list.active_marker")))
			} else {
				fmt.Fprintf(&b, "○ %s\n", p.String())
			}
		}
		return textMsg{title: i18n.T("list.title"), body: strings.TrimRight(b.String(), "\n")}
	}
}

func (m mainModel) showKeyCmd(p model.Profile) tea.Cmd {
	return func() tea.Msg {
		pub, err := m.svc.PublicKey(m.ctx, p.Email)
		if err != nil {
			return textMsg{err: err}
		}
		return textMsg{title: i18n.T("key.title", p.String()), body: keyBoxStyle.Render(strings.TrimSpace(string(pub)))}
	}
}

func (m mainModel) currentCmd() tea.Cmd {
	return func() tea.Msg {
		cur, err := m.svc.Current(m.ctx)
		if err != nil {
			return textMsg{err: err}
		}
		title := i18n.T("current.title")
		switch {
		case !cur.EmailSet:
			return textMsg{title: title, body: helpStyle.Render(i18n.T("current.none"))}
		case cur.Profile == nil:
			return textMsg{title: title, body: specialStyle.Render(i18n.T("current.unknown", cur.Email))}
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			cur.Profile.String(),
			"",
			keyBoxStyle.Render(strings.TrimSpace(string(cur.PublicKey))),
		)
		return textMsg{title: title, body: body}
	}
}

func (m mainModel) statusCmd() tea.Cmd {
	return func() tea.Msg {
		r, err := m.svc.Status(m.ctx)
		if err != nil {
			return textMsg{err: err}
		}
		return textMsg{title: i18n.T("status.title"), body: renderDrift(r)}
	}
}

func renderDrift(r model.DriftReport) string {
	var lines []string
	if r.Active == nil {
		lines = append(lines, specialStyle.Render(i18n.T("status.no_active")))
	} else {
		lines = append(lines, i18n.T("status.active", r.Active.String()))
	}
	if !r.HasDrift() {
		return strings.Join(append(lines, successStyle.Render(i18n.T("status.in_sync"))), "\n")
	}
	style := specialStyle
	if r.Classification == model.DriftCritical {
		style = errorStyle
	}
	lines = append(lines,
		style.Render(i18n.T("status.drift", ui.DriftFields(r))),
		helpStyle.Render(i18n.T("status.hint")),
	)
	return strings.Join(lines, "\n")
}
