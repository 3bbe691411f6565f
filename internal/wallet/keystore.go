package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/klingswap/pkg/types"
)

const keystoreVersion = 1

// Keystore errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrBadWalletName  = errors.New("invalid wallet name")
)

// keystoreFile is the on-disk JSON form of a wallet.
type keystoreFile struct {
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	EncryptedSeed []byte         `json:"encrypted_seed"`
	Accounts      []AccountEntry `json:"accounts"`
}

// AccountEntry records a derived address so it can be listed without the
// password.
type AccountEntry struct {
	Name    string        `json:"name"`
	Account uint32        `json:"account"`
	Index   uint32        `json:"index"`
	Address types.Address `json:"address"`
}

// Keystore stores encrypted wallets as <dir>/<name>.wallet.
type Keystore struct {
	dir string
}

// NewKeystore opens the keystore in dir, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) walletPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadWalletName, name)
	}
	return filepath.Join(ks.dir, name+".wallet"), nil
}

// Create seals seed under password as a new wallet.
func (ks *Keystore) Create(name string, seed, password []byte, params EncryptionParams) error {
	path, err := ks.walletPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrWalletExists, name)
	}
	sealed, err := Encrypt(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}
	return writeKeystoreFile(path, &keystoreFile{
		Version:       keystoreVersion,
		CreatedAt:     time.Now().UTC(),
		EncryptedSeed: sealed,
		Accounts:      []AccountEntry{},
	})
}

// Load decrypts and returns the seed of a wallet.
func (ks *Keystore) Load(name string, password []byte) ([]byte, error) {
	kf, _, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("unlock wallet %s: %w", name, err)
	}
	return seed, nil
}

// Unlock decrypts a wallet and derives the signing account at
// (account, index).
func (ks *Keystore) Unlock(name string, password []byte, account, index uint32) (*Account, error) {
	seed, err := ks.Load(name, password)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	return DeriveAccount(seed, account, index)
}

// AddAccount records a derived address. Recording the same derivation
// twice is a no-op.
func (ks *Keystore) AddAccount(name string, entry AccountEntry) error {
	kf, path, err := ks.read(name)
	if err != nil {
		return err
	}
	for _, e := range kf.Accounts {
		if e.Account == entry.Account && e.Index == entry.Index {
			if e.Address == entry.Address {
				return nil
			}
			return fmt.Errorf("path %s already recorded with address %s", DerivationPath(e.Account, e.Index), e.Address)
		}
	}
	kf.Accounts = append(kf.Accounts, entry)
	return writeKeystoreFile(path, kf)
}

// Accounts returns the recorded addresses of a wallet.
func (ks *Keystore) Accounts(name string) ([]AccountEntry, error) {
	kf, _, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	return kf.Accounts, nil
}

// NextIndex returns the first address index not yet recorded under account.
func (ks *Keystore) NextIndex(name string, account uint32) (uint32, error) {
	entries, err := ks.Accounts(name)
	if err != nil {
		return 0, err
	}
	var next uint32
	for _, e := range entries {
		if e.Account == account && e.Index >= next {
			next = e.Index + 1
		}
	}
	return next, nil
}

// List returns the wallet names in the keystore, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".wallet"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.walletPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrWalletNotFound, name)
		}
		return err
	}
	return nil
}

func (ks *Keystore) read(name string) (*keystoreFile, string, error) {
	path, err := ks.walletPath(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrWalletNotFound, name)
		}
		return nil, "", fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, "", fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, "", fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, path, nil
}

// writeKeystoreFile replaces path through a temporary file and rename.
func writeKeystoreFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}
