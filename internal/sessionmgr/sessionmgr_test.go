package sessionmgr

import (
	"testing"

	"ptyd/internal/ptyproc"
)

func newTestManager(t *testing.T) *Manager {
	m := New()
	t.Cleanup(func() {
		m.KillAll()
		m.Stop()
	})
	return m
}

func TestCreateAndResolveByName(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(CreateOpts{Argv: []string{"/bin/cat"}, Size: ptyproc.Size{Rows: 24, Cols: 80}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Name != "default" {
		t.Fatalf("want default name, got %q", sess.Name)
	}
	got, err := m.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != sess.ID {
		t.Fatalf("want resolve to find created session")
	}
	got, err = m.Resolve(sess.ID)
	if err != nil || got.ID != sess.ID {
		t.Fatalf("Resolve by id failed: %v", err)
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(CreateOpts{Argv: []string{"/bin/cat"}, Name: "t1", Size: ptyproc.Size{Rows: 24, Cols: 80}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(CreateOpts{Argv: []string{"/bin/cat"}, Name: "t1", Size: ptyproc.Size{Rows: 24, Cols: 80}}); err == nil {
		t.Fatal("want error for duplicate name")
	}
}

func TestKillRemovesSession(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(CreateOpts{Argv: []string{"/bin/cat"}, Name: "t2", Size: ptyproc.Size{Rows: 24, Cols: 80}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Kill(sess.ID); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if _, err := m.Resolve(sess.ID); err == nil {
		t.Fatal("want session_not_found after kill")
	}
}

func TestResolveUnknownFails(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Resolve("no-such-session"); err == nil {
		t.Fatal("want error for unknown session")
	}
}

func TestListReflectsLiveSessions(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(CreateOpts{Argv: []string{"/bin/cat"}, Name: "t3", Size: ptyproc.Size{Rows: 24, Cols: 80}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	infos := m.List()
	if len(infos) != 1 || infos[0].Name != "t3" {
		t.Fatalf("want one session named t3, got %+v", infos)
	}
}
