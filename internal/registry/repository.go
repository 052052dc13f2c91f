// Package registry owns the device fleet: persistence for registered
// screens and the registration handshake against the record backend.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/facegate/facegate/internal/domain"
)

// PgxPool is the pool surface the repository needs (satisfied by
// pgxpool.Pool and pgxmock).
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type DeviceRepository struct {
	pool PgxPool
}

func NewDeviceRepository(pool PgxPool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

const deviceColumns = `id, company_id, token, name, location, network,
		app_channel, app_version, rom_channel, rom_version, serial,
		user_token, user_secret, created_at, updated_at`

func scanDevice(row pgx.Row) (*domain.Device, error) {
	var device domain.Device
	err := row.Scan(
		&device.ID,
		&device.CompanyID,
		&device.Token,
		&device.Name,
		&device.Location,
		&device.Network,
		&device.AppChannel,
		&device.AppVersion,
		&device.RomChannel,
		&device.RomVersion,
		&device.Serial,
		&device.UserToken,
		&device.UserSecret,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO screens (id, company_id, token, name, location, network,
			app_channel, app_version, rom_channel, rom_version, serial,
			user_token, user_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		device.ID,
		device.CompanyID,
		device.Token,
		device.Name,
		device.Location,
		device.Network,
		device.AppChannel,
		device.AppVersion,
		device.RomChannel,
		device.RomVersion,
		device.Serial,
		device.UserToken,
		device.UserSecret,
	).Scan(&device.CreatedAt, &device.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDeviceExists
		}
		return fmt.Errorf("create device: %w", err)
	}

	return nil
}

func (r *DeviceRepository) GetByToken(ctx context.Context, token string) (*domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM screens
		WHERE token = $1
	`

	device, err := scanDevice(r.pool.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device by token: %w", err)
	}

	return device, nil
}

func (r *DeviceRepository) GetByLocation(ctx context.Context, location string) (*domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM screens
		WHERE location = $1
	`

	device, err := scanDevice(r.pool.QueryRow(ctx, query, location))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device by location: %w", err)
	}

	return device, nil
}

func (r *DeviceRepository) GetByName(ctx context.Context, name string) (*domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM screens
		WHERE name = $1
	`

	device, err := scanDevice(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device by name: %w", err)
	}

	return device, nil
}

func (r *DeviceRepository) List(ctx context.Context) ([]domain.Device, error) {
	query := `
		SELECT ` + deviceColumns + `
		FROM screens
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	return devices, nil
}

// UpdateCredentials stores the user token/secret pair handed back by the
// backend login, together with the company id it resolved to.
func (r *DeviceRepository) UpdateCredentials(ctx context.Context, token, userToken, userSecret string, companyID int64) error {
	query := `
		UPDATE screens
		SET user_token = $2, user_secret = $3, company_id = $4, updated_at = NOW()
		WHERE token = $1
	`

	result, err := r.pool.Exec(ctx, query, token, userToken, userSecret, companyID)
	if err != nil {
		return fmt.Errorf("update device credentials: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDeviceNotFound
	}

	return nil
}

func (r *DeviceRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM screens
		WHERE token = $1
	`

	result, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDeviceNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "23505") ||
		strings.Contains(errMsg, "unique") ||
		strings.Contains(errMsg, "duplicate key")
}
