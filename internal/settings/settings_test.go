package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/store"
)

func TestService_ServerRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	_, err := svc.Server(ctx)
	assert.ErrorIs(t, err, domain.ErrServerNotConfigured)

	want := domain.ServerInfo{Host: "http://10.0.0.2", Port: 8480, Secret: "shh"}
	require.NoError(t, svc.SetServer(ctx, want))

	got, err := svc.Server(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "http://10.0.0.2:8480", got.BaseURL())
}

func TestService_SetServerValidates(t *testing.T) {
	svc := NewService(store.NewMemoryStore())

	err := svc.SetServer(context.Background(), domain.ServerInfo{Port: 8480})
	require.Error(t, err)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrValidationFailed.Code, appErr.Code)
}
