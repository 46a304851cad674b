package setting

import (
	"context"
	"encoding/json"
)

// Setting is a free-form override. Value is stored as given.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type Repository interface {
	// Get returns nil, nil for an unknown key.
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, s *Setting) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*Setting, error)
}
