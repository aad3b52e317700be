package main

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-access"
)

// AppConfig is the root configuration document loaded by go-config from
// config files and environment overrides.
type AppConfig struct {
	Server      ServerConfig      `json:"server" yaml:"server"`
	Access      AccessConfig      `json:"access" yaml:"access"`
	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`
}

func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Access),
		validation.Field(&c.Persistence),
	)
}

func (c *AppConfig) GetAccess() AccessConfig {
	return c.Access
}

func (c *AppConfig) GetPersistence() PersistenceConfig {
	return c.Persistence
}

type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

func (s ServerConfig) GetAddress() string {
	port := s.Port
	if port == 0 {
		port = 8572
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

// AccessConfig mirrors access.Config in a file-friendly shape.
type AccessConfig struct {
	SigningKey        string   `json:"signing_key" yaml:"signing_key"`
	TokenExpiration   int      `json:"token_expiration" yaml:"token_expiration"`
	Issuer            string   `json:"issuer" yaml:"issuer"`
	Audience          []string `json:"audience" yaml:"audience"`
	SuperAdmins       []string `json:"super_admins" yaml:"super_admins"`
	AdminPrefixes     []string `json:"admin_prefixes" yaml:"admin_prefixes"`
	ProtectedPrefixes []string `json:"protected_prefixes" yaml:"protected_prefixes"`
	SignInPath        string   `json:"signin_path" yaml:"signin_path"`
	ForbiddenPath     string   `json:"forbidden_path" yaml:"forbidden_path"`
	PendingPath       string   `json:"pending_path" yaml:"pending_path"`
	ContextKey        string   `json:"context_key" yaml:"context_key"`
}

func (a AccessConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(16, 0)),
	)
}

func (a AccessConfig) ToAccessConfig() access.Config {
	if len(a.AdminPrefixes) == 0 {
		a.AdminPrefixes = []string{"/admin"}
	}
	if len(a.ProtectedPrefixes) == 0 {
		a.ProtectedPrefixes = []string{"/dashboard"}
	}
	return access.ConfigDefaults(access.Config{
		SigningKey:        a.SigningKey,
		TokenExpiration:   a.TokenExpiration,
		Issuer:            a.Issuer,
		Audience:          a.Audience,
		SuperAdmins:       a.SuperAdmins,
		AdminPrefixes:     a.AdminPrefixes,
		ProtectedPrefixes: a.ProtectedPrefixes,
		SignInPath:        a.SignInPath,
		ForbiddenPath:     a.ForbiddenPath,
		PendingPath:       a.PendingPath,
		ContextKey:        a.ContextKey,
	})
}

// PersistenceConfig satisfies the go-persistence-bun config surface.
type PersistenceConfig struct {
	Debug                 bool   `json:"debug" yaml:"debug"`
	Driver                string `json:"driver" yaml:"driver"`
	Server                string `json:"server" yaml:"server"`
	DSN                   string `json:"dsn" yaml:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout" yaml:"ping_timeout"`
}

func (p PersistenceConfig) Validate() error {
	return nil
}

func (p PersistenceConfig) GetDebug() bool {
	return p.Debug
}

func (p PersistenceConfig) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p PersistenceConfig) GetServer() string {
	return p.Server
}

func (p PersistenceConfig) GetDSN() string {
	if p.DSN == "" {
		return "file:dashd.db?cache=shared&mode=rwc"
	}
	return p.DSN
}

func (p PersistenceConfig) GetOtelIdentifier() string {
	return ""
}

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}
