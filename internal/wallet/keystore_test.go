package wallet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(t.TempDir())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func TestKeystore_CreateAndLoad(t *testing.T) {
	ks := testKeystore(t)
	seed := testSeed(t)

	if err := ks.Create("main", seed, []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	got, err := ks.Load("main", []byte("pw"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(got, seed) {
		t.Error("loaded seed differs")
	}

	if err := ks.Create("main", seed, []byte("pw"), fastParams()); !errors.Is(err, ErrWalletExists) {
		t.Errorf("duplicate Create() error = %v, want ErrWalletExists", err)
	}
	if _, err := ks.Load("main", []byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Load(wrong password) error = %v, want ErrWrongPassword", err)
	}
	if _, err := ks.Load("missing", []byte("pw")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrWalletNotFound", err)
	}
}

func TestKeystore_BadNames(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		if err := ks.Create(name, testSeed(t), []byte("pw"), fastParams()); !errors.Is(err, ErrBadWalletName) {
			t.Errorf("Create(%q) error = %v, want ErrBadWalletName", name, err)
		}
	}
}

func TestKeystore_Unlock(t *testing.T) {
	ks := testKeystore(t)
	seed := testSeed(t)
	if err := ks.Create("w", seed, []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	acct, err := ks.Unlock("w", []byte("pw"), 0, 4)
	if err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	want, err := DeriveAccount(seed, 0, 4)
	if err != nil {
		t.Fatalf("DeriveAccount() error: %v", err)
	}
	if acct.Address != want.Address {
		t.Errorf("unlocked %s, want %s", acct.Address, want.Address)
	}
}

func TestKeystore_Accounts(t *testing.T) {
	ks := testKeystore(t)
	seed := testSeed(t)
	if err := ks.Create("w", seed, []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	next, err := ks.NextIndex("w", 0)
	if err != nil || next != 0 {
		t.Fatalf("NextIndex() = %d, %v", next, err)
	}

	var entries []AccountEntry
	for i := uint32(0); i < 3; i++ {
		a, err := DeriveAccount(seed, 0, i)
		if err != nil {
			t.Fatalf("DeriveAccount() error: %v", err)
		}
		e := AccountEntry{Name: "addr", Account: 0, Index: i, Address: a.Address}
		if err := ks.AddAccount("w", e); err != nil {
			t.Fatalf("AddAccount() error: %v", err)
		}
		entries = append(entries, e)
	}
	// Recording the same derivation again is a no-op.
	if err := ks.AddAccount("w", entries[1]); err != nil {
		t.Errorf("idempotent AddAccount() error: %v", err)
	}
	conflict := entries[1]
	conflict.Address = entries[0].Address
	if err := ks.AddAccount("w", conflict); err == nil {
		t.Error("AddAccount() accepted a different address for a recorded path")
	}

	got, err := ks.Accounts("w")
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("Accounts() = %+v, want %+v", got, entries)
	}
	if next, _ := ks.NextIndex("w", 0); next != 3 {
		t.Errorf("NextIndex(0) = %d, want 3", next)
	}
	if next, _ := ks.NextIndex("w", 1); next != 0 {
		t.Errorf("NextIndex(1) = %d, want 0", next)
	}
}

func TestKeystore_ListAndDelete(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"b", "a", "c"} {
		if err := ks.Create(name, testSeed(t), []byte("pw"), fastParams()); err != nil {
			t.Fatalf("Create(%s) error: %v", name, err)
		}
	}
	os.WriteFile(filepath.Join(ks.dir, "notes.txt"), []byte("x"), 0600)

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("List() = %v", names)
	}

	if err := ks.Delete("b"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := ks.Delete("b"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("second Delete() error = %v, want ErrWalletNotFound", err)
	}
	if names, _ := ks.List(); len(names) != 2 {
		t.Errorf("List() after delete = %v", names)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	ks := testKeystore(t)
	if err := ks.Create("w", testSeed(t), []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	info, err := os.Stat(filepath.Join(ks.dir, "w.wallet"))
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("wallet file mode = %o, want 600", perm)
	}
}
