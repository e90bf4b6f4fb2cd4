package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/toeirei/gitswitch/internal/core"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/model"
)

type fakeService struct {
	profiles []model.Profile
	switched string
	removed  string
	added    [2]string
	wiped    bool
}

func (f *fakeService) Profiles(context.Context) ([]model.Profile, error) {
	return append([]model.Profile(nil), f.profiles...), nil
}

func (f *fakeService) InactiveProfiles(context.Context) ([]model.Profile, error) {
	var out []model.Profile
	for _, p := range f.profiles {
		if !p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeService) AddProfile(_ context.Context, name, email string) (core.AddResult, error) {
	f.added = [2]string{name, email}
	p := model.Profile{Name: name, Email: email, Active: true}
	return core.AddResult{Profile: p}, nil
}

func (f *fakeService) SwitchTo(_ context.Context, email string) (core.SwitchResult, error) {
	f.switched = email
	for _, p := range f.profiles {
		if p.Email == email {
			p.Active = true
			return core.SwitchResult{Profile: &p}, nil
		}
	}
	return core.SwitchResult{}, core.ErrNotFound
}

func (f *fakeService) RemoveProfile(_ context.Context, email string) (core.RemoveResult, error) {
	f.removed = email
	return core.RemoveResult{Removed: model.Profile{Email: email, Name: "X"}}, nil
}

func (f *fakeService) RemoveAll(_ context.Context, confirmed bool) (core.RemoveAllResult, error) {
	f.wiped = confirmed
	return core.RemoveAllResult{Removed: len(f.profiles)}, nil
}

func (f *fakeService) PublicKey(context.Context, string) ([]byte, error) {
	return []byte("ssh-ed25519 AAAA test@x\n"), nil
}

func (f *fakeService) Current(context.Context) (core.CurrentIdentity, error) {
	return core.CurrentIdentity{}, nil
}

func (f *fakeService) Status(context.Context) (model.DriftReport, error) {
	return model.DriftReport{Classification: model.DriftNone}, nil
}

func twoProfiles() *fakeService {
	return &fakeService{profiles: []model.Profile{
		{Name: "A", Email: "a@x"},
		{Name: "B", Email: "b@x", Active: true},
	}}
}

// drain feeds the results of cmd back into m until a message arrives that
// the menu does not produce itself (quit, blink, batches).
func drain(m tea.Model, cmd tea.Cmd) tea.Model {
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		switch msg.(type) {
		case headerMsg, pickMsg, resultMsg, textMsg, addSubmitMsg, backToMenuMsg:
		default:
			return m
		}
		m, cmd = m.Update(msg)
	}
	return m
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = drain(next, cmd)
	}
	return m
}

func start(t *testing.T, svc Service) tea.Model {
	t.Helper()
	i18n.Init("en")
	m := newMainModel(context.Background(), svc)
	return drain(m, m.Init())
}

func TestMenu_SwitchFlow(t *testing.T) {
	svc := twoProfiles()
	m := start(t, svc)
	if mm := m.(mainModel); mm.active == nil || mm.active.Email != "b@x" || mm.count != 2 {
		t.Fatalf("header not loaded: %+v", mm.active)
	}

	m = press(m, "enter")
	if m.(mainModel).state != pickView {
		t.Fatalf("expected picker, got state %d", m.(mainModel).state)
	}
	m = press(m, "enter")
	mm := m.(mainModel)
	if svc.switched != "a@x" {
		t.Fatalf("expected switch to a@x, got %q", svc.switched)
	}
	if mm.state != menuView || !strings.Contains(mm.status, "A <a@x>") || mm.statusErr {
		t.Fatalf("unexpected status after switch: %q", mm.status)
	}
}

func TestMenu_SwitchWithoutOthers(t *testing.T) {
	svc := &fakeService{profiles: []model.Profile{{Name: "A", Email: "a@x", Active: true}}}
	m := press(start(t, svc), "enter")
	mm := m.(mainModel)
	if mm.state != menuView || mm.status != i18n.T("switch.no_other_accounts") {
		t.Fatalf("expected no-other-accounts status, got state %d status %q", mm.state, mm.status)
	}
}

func TestMenu_RemoveNeedsConfirmation(t *testing.T) {
	svc := twoProfiles()
	m := start(t, svc)
	// Remove is the third entry.
	m = press(m, "down", "down", "enter")
	if m.(mainModel).state != pickView {
		t.Fatal("expected picker")
	}
	m = press(m, "enter")
	if m.(mainModel).state != confirmView {
		t.Fatal("expected confirmation")
	}
	m = press(m, "n")
	if svc.removed != "" || m.(mainModel).status != i18n.T("remove_all.cancelled") {
		t.Fatalf("declined removal ran: %q", svc.removed)
	}

	m = press(m, "enter", "enter", "y")
	if svc.removed != "a@x" {
		t.Fatalf("expected a@x removed, got %q", svc.removed)
	}
}

func TestMenu_RemoveAll(t *testing.T) {
	svc := twoProfiles()
	m := press(start(t, svc), "down", "down", "down", "enter", "y")
	if !svc.wiped {
		t.Fatal("expected RemoveAll to be called with confirmation")
	}
	if !strings.Contains(m.(mainModel).status, "2") {
		t.Fatalf("unexpected status: %q", m.(mainModel).status)
	}
}

func TestMenu_AddForm(t *testing.T) {
	svc := &fakeService{}
	m := press(start(t, svc), "down", "enter")
	mm := m.(mainModel)
	if mm.state != addView {
		t.Fatalf("expected add form, got state %d", mm.state)
	}
	mm.form.inputs[0].SetValue("Ada")
	mm.form.inputs[1].SetValue("ada@example.com")

	m = press(mm, "tab", "tab", "enter")
	if svc.added != [2]string{"Ada", "ada@example.com"} {
		t.Fatalf("unexpected add call: %v", svc.added)
	}
	if got := m.(mainModel).status; got != "Profile added for Ada (ada@example.com)" {
		t.Fatalf("unexpected status: %q", got)
	}
}

func TestMenu_AddFormRequiresFields(t *testing.T) {
	svc := &fakeService{}
	m := press(start(t, svc), "down", "enter", "tab", "tab", "enter")
	mm := m.(mainModel)
	if mm.state != addView || mm.form.err == "" || svc.added[1] != "" {
		t.Fatalf("empty form was submitted: %+v", svc.added)
	}
	if mm = press(mm, "esc").(mainModel); mm.state != menuView {
		t.Fatal("esc should leave the form")
	}
}

func TestMenu_ShowKeyAndView(t *testing.T) {
	svc := twoProfiles()
	m := press(start(t, svc), "down", "down", "down", "down", "down", "enter", "enter")
	mm := m.(mainModel)
	if mm.state != textView || !strings.Contains(mm.View(), "ssh-ed25519 AAAA test@x") {
		t.Fatalf("expected key page, got state %d", mm.state)
	}
	if mm = press(mm, "q").(mainModel); mm.state != menuView {
		t.Fatal("q should return to the menu")
	}
	if !strings.Contains(mm.View(), i18n.T("menu.switch")) {
		t.Fatal("menu view misses entries")
	}
}

func TestRenderDrift(t *testing.T) {
	i18n.Init("en")
	out := renderDrift(model.DriftReport{
		Active:         &model.Profile{Name: "A", Email: "a@x"},
		Diverged:       []model.DriftField{model.FieldEmail, model.FieldPrivateKey},
		Classification: model.DriftCritical,
	})
	if !strings.Contains(out, "user.email, private_key") {
		t.Fatalf("drift fields missing: %q", out)
	}
}
