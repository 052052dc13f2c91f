// Package settings keeps the record server context. It is supplied
// externally and required before any pipeline may run.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/store"
)

const serverKey = "server"

type Service struct {
	store store.KeyedStore
}

func NewService(kv store.KeyedStore) *Service {
	return &Service{store: kv}
}

// Server returns the configured record server, or ErrServerNotConfigured.
func (s *Service) Server(ctx context.Context) (domain.ServerInfo, error) {
	raw, err := s.store.Get(ctx, serverKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return domain.ServerInfo{}, domain.ErrServerNotConfigured
		}
		return domain.ServerInfo{}, fmt.Errorf("read server info: %w", err)
	}

	var info domain.ServerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return domain.ServerInfo{}, fmt.Errorf("decode server info: %w", err)
	}
	return info, nil
}

// SetServer stores the record server context.
func (s *Service) SetServer(ctx context.Context, info domain.ServerInfo) error {
	if info.Host == "" || info.Port == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("host and port are required"))
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode server info: %w", err)
	}
	if err := s.store.Set(ctx, serverKey, raw); err != nil {
		return fmt.Errorf("store server info: %w", err)
	}
	return nil
}
