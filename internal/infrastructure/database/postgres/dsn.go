package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

const (
	applicationName = "pgstudio"
	connectTimeout  = 10 * time.Second
)

// ConnConfig builds the pgx configuration for desc.
func ConnConfig(desc model.ConnectionDescriptor) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(connectionURL(desc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection settings for '%s': %w", desc.ID, err)
	}
	return cfg, nil
}

// connectionURL renders desc as a postgres:// URL. The password is embedded
// and the result must never be logged unmasked.
func connectionURL(desc model.ConnectionDescriptor) string {
	port := desc.Port
	if port == 0 {
		port = model.DefaultPort
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(desc.Host, strconv.Itoa(port)),
		Path:   "/" + desc.Database,
	}
	if desc.Password != "" {
		u.User = url.UserPassword(desc.User, desc.Password)
	} else {
		u.User = url.User(desc.User)
	}

	mode, err := model.ParseSSLMode(string(desc.SSLMode))
	if err != nil {
		mode = model.SSLModePrefer
	}
	q := url.Values{}
	q.Set("sslmode", string(mode))
	q.Set("application_name", applicationName)
	q.Set("connect_timeout", strconv.Itoa(int(connectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}
