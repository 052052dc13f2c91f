package domain

import (
	"time"

	"github.com/google/uuid"
)

// Device is a registered display unit (pad) with an attached camera.
// Created by the registration flow; the credential fields are filled in
// after the backend accepts the device login.
type Device struct {
	ID        uuid.UUID `json:"id"`
	CompanyID int64     `json:"company_id"`
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Network   string    `json:"network"`

	AppChannel string `json:"app_channel,omitempty"`
	AppVersion string `json:"app_version,omitempty"`
	RomChannel string `json:"rom_channel,omitempty"`
	RomVersion string `json:"rom_version,omitempty"`
	Serial     string `json:"serial"`

	// Credential pair used to sign backend requests.
	UserToken  string `json:"-"`
	UserSecret string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SigningToken returns the token carried in the OAuth-Token header: the
// user token when the device has been through login, the device token before.
func (d *Device) SigningToken() string {
	if d.UserToken != "" {
		return d.UserToken
	}
	return d.Token
}
