// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/toeirei/gitswitch/internal/db"
	"github.com/toeirei/gitswitch/internal/gitconfig"
	"github.com/toeirei/gitswitch/internal/keygen"
	"github.com/toeirei/gitswitch/internal/mirror"
	"github.com/toeirei/gitswitch/internal/model"
)

var storeSeq atomic.Int64

type fixture struct {
	store  *db.BunStore
	fs     afero.Fs
	git    *gitconfig.Memory
	mirror *mirror.Mirror
	paths  model.KeyPaths
	gen    *switchableGenerator
	sw     *Switcher
}

// switchableGenerator wraps the native generator so a test can make the next
// generation fail after the stale files were already removed.
type switchableGenerator struct {
	inner keygen.Generator
	fs    afero.Fs
	paths model.KeyPaths
	fail  error
}

func (g *switchableGenerator) Generate(ctx context.Context, email string) (model.KeyPair, error) {
	if g.fail != nil {
		_ = g.fs.Remove(g.paths.Private)
		_ = g.fs.Remove(g.paths.Public)
		return model.KeyPair{}, fmt.Errorf("%w: %w", keygen.ErrKeyGenFailed, g.fail)
	}
	return g.inner.Generate(ctx, email)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:core_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), storeSeq.Add(1))
	store, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	fs := afero.NewMemMapFs()
	paths := model.NewKeyPaths("/home/test/.ssh", "id_ed25519")
	git := gitconfig.NewMemory()
	m := mirror.New(fs, paths, git)
	gen := &switchableGenerator{inner: &keygen.Native{Fs: fs, Paths: paths}, fs: fs, paths: paths}
	return &fixture{
		store:  store,
		fs:     fs,
		git:    git,
		mirror: m,
		paths:  paths,
		gen:    gen,
		sw:     NewSwitcher(store, m, gen, opts...),
	}
}

func (f *fixture) add(t *testing.T, name, email string) AddResult {
	t.Helper()
	res, err := f.sw.AddProfile(context.Background(), name, email)
	if err != nil {
		t.Fatalf("AddProfile(%s) failed: %v", email, err)
	}
	if res.MirrorErr != nil {
		t.Fatalf("AddProfile(%s) mirror error: %v", email, res.MirrorErr)
	}
	return res
}

func (f *fixture) snapshot(t *testing.T) model.MirroredState {
	t.Helper()
	s, err := f.mirror.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	return s
}

func (f *fixture) assertMirrors(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	p, err := f.store.GetProfile(ctx, email)
	if err != nil {
		t.Fatalf("GetProfile(%s) failed: %v", email, err)
	}
	kp, err := f.store.GetKeyPair(ctx, email)
	if err != nil {
		t.Fatalf("GetKeyPair(%s) failed: %v", email, err)
	}
	s := f.snapshot(t)
	if s.Name != p.Name || s.Email != p.Email {
		t.Fatalf("git identity = %q <%s>, want %s", s.Name, s.Email, p)
	}
	if !bytes.Equal(s.PrivateKey, kp.PrivateKey) || !bytes.Equal(s.PublicKey, kp.PublicKey) {
		t.Fatalf("resident key files do not match stored keypair of %s", email)
	}
}

func (f *fixture) assertAtMostOneActive(t *testing.T) {
	t.Helper()
	all, err := f.store.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles failed: %v", err)
	}
	n := 0
	for _, p := range all {
		if p.Active {
			n++
		}
	}
	if n > 1 {
		t.Fatalf("expected at most one active profile, got %d", n)
	}
}

func TestAddProfile_DuplicateEmailRejected(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x.com")
	before := f.snapshot(t)

	_, err := f.sw.AddProfile(context.Background(), "B", "a@x.com")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	all, _ := f.store.ListProfiles(context.Background())
	if len(all) != 1 || all[0].Name != "A" {
		t.Fatalf("expected exactly profile A, got %+v", all)
	}
	after := f.snapshot(t)
	if !bytes.Equal(before.PrivateKey, after.PrivateKey) || after.Name != "A" {
		t.Fatalf("duplicate add touched the mirror")
	}
}

func TestAddProfile_LastAddedIsActiveAndMirrored(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	res := f.add(t, "B", "b@x")

	if !res.Profile.Active || len(res.PublicKey) == 0 {
		t.Fatalf("unexpected add result: %+v", res)
	}
	a, _ := f.store.GetProfile(context.Background(), "a@x")
	b, _ := f.store.GetProfile(context.Background(), "b@x")
	if a.Active || !b.Active {
		t.Fatalf("expected B active and A inactive, got A=%v B=%v", a.Active, b.Active)
	}
	f.assertMirrors(t, "b@x")
	f.assertAtMostOneActive(t)
}

func TestAddProfile_InvalidInput(t *testing.T) {
	f := newFixture(t)
	for _, in := range [][2]string{{"", "a@x"}, {"A", ""}, {"A", "a b@x"}, {"A\n", "a@x"}, {"A", "-oops"}} {
		if _, err := f.sw.AddProfile(context.Background(), in[0], in[1]); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("AddProfile(%q, %q): expected ErrInvalidInput, got %v", in[0], in[1], err)
		}
	}
	if all, _ := f.store.ListProfiles(context.Background()); len(all) != 0 {
		t.Fatalf("invalid input stored profiles: %+v", all)
	}
}

func TestAddProfile_KeyGenFailureRestoresPrevious(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	f.gen.fail = errors.New("boom")

	_, err := f.sw.AddProfile(context.Background(), "B", "b@x")
	if !errors.Is(err, keygen.ErrKeyGenFailed) {
		t.Fatalf("expected ErrKeyGenFailed, got %v", err)
	}
	if _, err := f.store.GetProfile(context.Background(), "b@x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed add must not store the profile, got %v", err)
	}
	f.assertMirrors(t, "a@x")
}

func TestAddProfile_KeyGenFailureWithoutPreviousClears(t *testing.T) {
	f := newFixture(t)
	f.gen.fail = errors.New("boom")
	if _, err := f.sw.AddProfile(context.Background(), "A", "a@x"); err == nil {
		t.Fatal("expected an error")
	}
	if s := f.snapshot(t); !s.Cleared() {
		t.Fatalf("expected cleared mirror, got %+v", s)
	}
}

func TestAddProfile_MirrorFailureKeepsStore(t *testing.T) {
	f := newFixture(t)
	f.git.FailSet = map[string]error{gitconfig.KeyEmail: errors.New("locked")}

	res, err := f.sw.AddProfile(context.Background(), "A", "a@x")
	if err != nil {
		t.Fatalf("AddProfile failed: %v", err)
	}
	if !errors.Is(res.MirrorErr, mirror.ErrMirrorWriteFailed) {
		t.Fatalf("expected mirror error, got %v", res.MirrorErr)
	}
	p, err := f.store.GetProfile(context.Background(), "a@x")
	if err != nil || !p.Active {
		t.Fatalf("profile must stay stored and active: %+v, %v", p, err)
	}
}

func TestSwitchTo_NotFoundMutatesNothing(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")
	before := f.snapshot(t)

	_, err := f.sw.SwitchTo(context.Background(), "nobody@x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	active, _ := f.store.ActiveProfile(context.Background())
	if active == nil || active.Email != "b@x" {
		t.Fatalf("active profile changed: %+v", active)
	}
	after := f.snapshot(t)
	if after.Email != before.Email || !bytes.Equal(after.PrivateKey, before.PrivateKey) {
		t.Fatal("mirror changed on failed switch")
	}
}

func TestSwitchTo_ActivatesAndMirrors(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")

	res, err := f.sw.SwitchTo(context.Background(), "a@x")
	if err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if res.Profile == nil || res.Profile.Email != "a@x" || res.NoOtherAccounts || res.AlreadyActive {
		t.Fatalf("unexpected result: %+v", res)
	}
	f.assertMirrors(t, "a@x")
	f.assertAtMostOneActive(t)
}

func TestSwitchTo_AlreadyActiveRepairsMirror(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	if err := afero.WriteFile(f.fs, f.paths.Private, []byte("tampered"), 0o600); err != nil {
		t.Fatal(err)
	}
	_ = f.git.Set(context.Background(), gitconfig.KeyName, "Someone")

	res, err := f.sw.SwitchTo(context.Background(), "a@x")
	if err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if !res.AlreadyActive {
		t.Fatalf("expected AlreadyActive, got %+v", res)
	}
	f.assertMirrors(t, "a@x")

	entries, err := f.sw.History(context.Background(), 1)
	if err != nil || len(entries) != 1 || entries[0].Action != ActionSwitchProfile || !strings.Contains(entries[0].Details, "reapplied") {
		t.Fatalf("expected the repair in the audit log, got %+v, %v", entries, err)
	}
}

func TestSwitchRandom_NoOtherAccounts(t *testing.T) {
	f := newFixture(t)
	res, err := f.sw.SwitchRandom(context.Background())
	if err != nil || !res.NoOtherAccounts {
		t.Fatalf("expected NoOtherAccounts on empty store, got %+v, %v", res, err)
	}

	f.add(t, "A", "a@x")
	before := f.snapshot(t)
	res, err = f.sw.SwitchRandom(context.Background())
	if err != nil || !res.NoOtherAccounts || res.Profile != nil {
		t.Fatalf("expected NoOtherAccounts with a single profile, got %+v, %v", res, err)
	}
	if after := f.snapshot(t); !bytes.Equal(after.PrivateKey, before.PrivateKey) {
		t.Fatal("NoOtherAccounts must not touch the mirror")
	}
}

func TestSwitchRandom_UsesInjectedSource(t *testing.T) {
	var gotN int
	f := newFixture(t, WithRandom(func(n int) int { gotN = n; return n - 1 }))
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")
	f.add(t, "C", "c@x")

	res, err := f.sw.SwitchRandom(context.Background())
	if err != nil {
		t.Fatalf("SwitchRandom failed: %v", err)
	}
	if gotN != 2 {
		t.Fatalf("expected 2 candidates, got %d", gotN)
	}
	// Inactive profiles come in insertion order: A, B.
	if res.Profile == nil || res.Profile.Email != "b@x" {
		t.Fatalf("expected b@x, got %+v", res.Profile)
	}
	f.assertMirrors(t, "b@x")
}

func TestRemoveProfile_SoleActiveClears(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")

	res, err := f.sw.RemoveProfile(context.Background(), "a@x")
	if err != nil {
		t.Fatalf("RemoveProfile failed: %v", err)
	}
	if !res.Removed.Active || res.Promoted != nil || !res.NoOtherAccounts || res.MirrorErr != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if all, _ := f.store.ListProfiles(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty store, got %+v", all)
	}
	if s := f.snapshot(t); !s.Cleared() {
		t.Fatalf("expected cleared mirror, got %+v", s)
	}
}

func TestRemoveProfile_ActivePromotesRemaining(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")

	res, err := f.sw.RemoveProfile(context.Background(), "b@x")
	if err != nil {
		t.Fatalf("RemoveProfile failed: %v", err)
	}
	if res.Promoted == nil || res.Promoted.Email != "a@x" {
		t.Fatalf("expected a@x promoted, got %+v", res.Promoted)
	}
	f.assertMirrors(t, "a@x")
	f.assertAtMostOneActive(t)
}

func TestRemoveProfile_InactiveLeavesMirror(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")

	res, err := f.sw.RemoveProfile(context.Background(), "a@x")
	if err != nil {
		t.Fatalf("RemoveProfile failed: %v", err)
	}
	if res.Removed.Active || res.Promoted != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	f.assertMirrors(t, "b@x")
}

func TestRemoveProfile_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.sw.RemoveProfile(context.Background(), "a@x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveAll_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")

	if _, err := f.sw.RemoveAll(context.Background(), false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if all, _ := f.store.ListProfiles(context.Background()); len(all) != 1 {
		t.Fatal("unconfirmed RemoveAll deleted profiles")
	}

	f.add(t, "B", "b@x")
	res, err := f.sw.RemoveAll(context.Background(), true)
	if err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if res.Removed != 2 || res.MirrorErr != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s := f.snapshot(t); !s.Cleared() {
		t.Fatalf("expected cleared mirror, got %+v", s)
	}
}

func TestOperationSequence_SingleActive(t *testing.T) {
	f := newFixture(t, WithRandom(func(n int) int { return 0 }))
	ctx := context.Background()
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")
	f.add(t, "C", "c@x")
	steps := []func() error{
		func() error { _, err := f.sw.SwitchTo(ctx, "a@x"); return err },
		func() error { _, err := f.sw.RemoveProfile(ctx, "a@x"); return err },
		func() error { _, err := f.sw.SwitchRandom(ctx); return err },
		func() error { _, err := f.sw.AddProfile(ctx, "D", "d@x"); return err },
		func() error { _, err := f.sw.RemoveProfile(ctx, "c@x"); return err },
		func() error { _, err := f.sw.RemoveAll(ctx, true); return err },
		func() error { _, err := f.sw.AddProfile(ctx, "E", "e@x"); return err },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		f.assertAtMostOneActive(t)
	}
	f.assertMirrors(t, "e@x")
}

func TestHistory_RecordsMutations(t *testing.T) {
	f := newFixture(t)
	f.add(t, "A", "a@x")
	f.add(t, "B", "b@x")
	if _, err := f.sw.SwitchTo(context.Background(), "a@x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sw.RemoveProfile(context.Background(), "b@x"); err != nil {
		t.Fatal(err)
	}

	entries, err := f.sw.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	want := []string{ActionRemoveProfile, ActionSwitchProfile, ActionAddProfile, ActionAddProfile}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Fatalf("audit actions = %v, want %v", actions, want)
	}
}

func TestPublicKey(t *testing.T) {
	f := newFixture(t)
	res := f.add(t, "A", "a@x")

	pub, err := f.sw.PublicKey(context.Background(), "a@x")
	if err != nil || !bytes.Equal(pub, res.PublicKey) {
		t.Fatalf("PublicKey = %q, %v", pub, err)
	}
	if _, err := f.sw.PublicKey(context.Background(), "b@x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
