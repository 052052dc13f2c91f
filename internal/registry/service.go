package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/facegate/facegate/internal/backend"
	"github.com/facegate/facegate/internal/domain"
)

// BackendAuthenticator is the slice of the record backend the registration
// handshake needs.
type BackendAuthenticator interface {
	Login(ctx context.Context, server domain.ServerInfo, device *domain.Device, username, password string, factorySetting bool) (*backend.LoginResult, error)
	CompanyID(ctx context.Context, server domain.ServerInfo, username, password string) (int64, error)
	Configure(ctx context.Context, server domain.ServerInfo, device *domain.Device) error
}

// Registration is the input for enrolling a new device.
type Registration struct {
	Token    string
	Name     string
	Location string
	Network  string
	Serial   string
	Username string
	Password string
}

// Service enrolls devices: backend login, company resolution, persistence
// and initial device configuration.
type Service struct {
	repo    *DeviceRepository
	backend BackendAuthenticator
	logger  *slog.Logger
}

func NewService(repo *DeviceRepository, backend BackendAuthenticator, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		backend: backend,
		logger:  logger,
	}
}

// Register performs the full enrollment handshake. The device row is only
// written after the backend accepted the login, so a rejected device never
// reaches the directory.
func (s *Service) Register(ctx context.Context, server domain.ServerInfo, reg Registration) (*domain.Device, error) {
	device := &domain.Device{
		Token:    reg.Token,
		Name:     reg.Name,
		Location: reg.Location,
		Network:  reg.Network,
		Serial:   reg.Serial,
	}

	login, err := s.backend.Login(ctx, server, device, reg.Username, reg.Password, true)
	if err != nil {
		return nil, fmt.Errorf("backend login: %w", err)
	}
	device.UserToken = login.Token
	device.UserSecret = login.Secret

	companyID, err := s.backend.CompanyID(ctx, server, reg.Username, reg.Password)
	if err != nil {
		return nil, fmt.Errorf("resolve company: %w", err)
	}
	device.CompanyID = companyID

	if err := s.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	if err := s.backend.Configure(ctx, server, device); err != nil {
		// The device is enrolled; configuration can be replayed later.
		s.logger.Warn("device configuration failed", "token", device.Token, "error", err)
	}

	s.logger.Info("device registered", "token", device.Token, "company", companyID)
	return device, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Device, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, token string) (*domain.Device, error) {
	return s.repo.GetByToken(ctx, token)
}

func (s *Service) Remove(ctx context.Context, token string) error {
	if err := s.repo.Delete(ctx, token); err != nil {
		return err
	}
	s.logger.Info("device removed", "token", token)
	return nil
}
