package db

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
)

// DefaultConnectTimeout bounds connection establishment when none is configured.
const DefaultConnectTimeout = 5 * time.Second

// ErrInvalidConfig indicates a missing or malformed connection parameter.
var ErrInvalidConfig = errors.New("platform/db: invalid config")

// Config enumerates the PostgreSQL connection parameters.
type Config struct {
	Host           string        `validate:"required"`
	User           string        `validate:"required"`
	Password       string        `validate:"required"`
	Port           uint16        `validate:"required"`
	Database       string        `validate:"required"`
	ConnectTimeout time.Duration `validate:"gte=0"`
}

var configValidator = validator.New()

// Validate reports every missing parameter at once.
func (c Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
}

// DSN renders the configuration as a postgres URL.
func (c Config) DSN() string {
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	secs := int(timeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port))),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"connect_timeout": []string{strconv.Itoa(secs)}}.Encode(),
	}
	return u.String()
}

// ParseConnConfig validates c and converts it into a pgx connection config.
func ParseConnConfig(c Config) (*pgx.ConnConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	config, err := pgx.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	if c.ConnectTimeout > 0 {
		config.ConnectTimeout = c.ConnectTimeout
	}
	return config, nil
}
