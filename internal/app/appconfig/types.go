package appconfig

import (
	"fmt"
	"strings"
)

type StorageBackend string

const (
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendMemory   StorageBackend = "memory"
)

func (b *StorageBackend) Decode(value string) error {
	switch v := StorageBackend(strings.ToLower(strings.TrimSpace(value))); v {
	case StorageBackendPostgres, StorageBackendMemory:
		*b = v
		return nil
	default:
		return fmt.Errorf("invalid storage backend: expect one of %q or %q, but got: %s", StorageBackendPostgres, StorageBackendMemory, value)
	}
}
