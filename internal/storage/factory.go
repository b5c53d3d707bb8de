package storage

import "fmt"

// NewStore builds the backend named by kind. codecName selects the payload
// codec used by backends that serialize records; empty means JSON.
func NewStore(kind, sqlitePath, codecName string) (Store, error) {
	codec, err := NewCodec(codecName)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath, codec)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
