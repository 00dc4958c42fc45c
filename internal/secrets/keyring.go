// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// KeyringStore implements Store using the OS keyring via zalando/go-keyring.
// On macOS it uses Keychain, on Linux secret-service (D-Bus), and on Windows
// the Credential Manager.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if service == "" || key == "" {
		return lkerr.New(lkerr.CodeSecretInvalidInput, "secret store: service and key must not be empty")
	}

	if err := keyring.Set(service, key, value); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	value, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", lkerr.Errorf(lkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return "", lkerr.Wrapf(err, lkerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return value, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return lkerr.Errorf(lkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return lkerr.Wrapf(err, lkerr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}
