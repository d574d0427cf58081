package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// DefaultKeychainService groups whiteboard source passwords in the keychain.
const DefaultKeychainService = "whiteboard-sources"

// exit status of `security` when no matching item exists
const keychainItemNotFound = 44

// KeychainStore reads and writes generic passwords through the macOS
// `security` tool. Elsewhere it behaves as an empty, read-only store.
type KeychainStore struct {
	Service string
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{Service: DefaultKeychainService}
}

func (k *KeychainStore) enabled() bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	_, err := exec.LookPath("security")
	return err == nil
}

func (k *KeychainStore) security(verb, account string, extra ...string) *exec.Cmd {
	args := append([]string{verb, "-a", account, "-s", k.Service}, extra...)
	return exec.Command("security", args...)
}

func (k *KeychainStore) Set(key string, value []byte) error {
	if !k.enabled() {
		return fmt.Errorf("keychain set %q: no keychain on %s", key, runtime.GOOS)
	}
	out, err := k.security("add-generic-password", key, "-w", string(value), "-U").CombinedOutput()
	if err != nil {
		return fmt.Errorf("keychain set %q: %s: %w", key, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get returns nil when the item is missing or the keychain is locked.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	if !k.enabled() {
		return nil, nil
	}
	out, err := k.security("find-generic-password", key, "-w").Output()
	if err != nil {
		return nil, nil
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	if !k.enabled() {
		return nil
	}
	err := k.security("delete-generic-password", key).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == keychainItemNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keychain delete %q: %w", key, err)
	}
	return nil
}
