package storage

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Target is a resolved sink: the backend kind and a DSN its driver accepts.
type Target struct {
	Kind string
	DSN  string
}

// Redacted returns the DSN with any password masked, for logs.
func (t Target) Redacted() string {
	if t.Kind == "mysql" {
		cfg, err := mysql.ParseDSN(t.DSN)
		if err != nil {
			return "<unparseable mysql dsn>"
		}
		if cfg.Passwd != "" {
			cfg.Passwd = "xxxxx"
		}
		return cfg.FormatDSN()
	}
	u, err := url.Parse(t.DSN)
	if err != nil || u.User == nil {
		return t.DSN
	}
	return u.Redacted()
}

// mysqlJDBCOnly are Connector/J options the Go driver rejects.
var mysqlJDBCOnly = map[string]struct{}{
	"usessl":                        {},
	"servertimezone":                {},
	"characterencoding":             {},
	"useunicode":                    {},
	"rewritebatchedstatements":      {},
	"allowpublickeyretrieval":       {},
	"usejdbccomplianttimezoneshift": {},
	"uselegacydatetimecode":         {},
}

// ParseSinkURL resolves a JDBC URL or a native DSN into a Target. user and
// password are injected when the URL carries no credentials of its own.
//
// Accepted forms:
//
//	jdbc:postgresql://host:5432/db, postgres://..., postgresql://...
//	jdbc:sqlserver://host:1433;databaseName=db, sqlserver://...
//	jdbc:mysql://host:3306/db, mysql://...
//	jdbc:sqlite:/path/to.db, sqlite:/path/to.db, file:/path/to.db
func ParseSinkURL(raw, user, password string) (Target, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Target{}, fmt.Errorf("sink url: empty")
	}
	s = strings.TrimPrefix(s, "jdbc:")
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "postgresql://"), strings.HasPrefix(lower, "postgres://"):
		u, err := url.Parse(s)
		if err != nil {
			return Target{}, fmt.Errorf("sink url: %w", err)
		}
		u.Scheme = "postgres"
		injectUser(u, user, password)
		return Target{Kind: "postgres", DSN: u.String()}, nil

	case strings.HasPrefix(lower, "sqlserver://"):
		dsn, err := sqlServerDSN(s[len("sqlserver://"):], user, password)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: "mssql", DSN: dsn}, nil

	case strings.HasPrefix(lower, "mysql://"):
		dsn, err := mysqlDSN(s, user, password)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: "mysql", DSN: dsn}, nil

	case strings.HasPrefix(lower, "sqlite:"):
		path := strings.TrimPrefix(s[len("sqlite:"):], "//")
		if path == "" {
			return Target{}, fmt.Errorf("sink url: sqlite path is empty")
		}
		return Target{Kind: "sqlite", DSN: path}, nil

	case strings.HasPrefix(lower, "file:"):
		return Target{Kind: "sqlite", DSN: s}, nil
	}

	return Target{}, fmt.Errorf("sink url: unsupported scheme in %q", raw)
}

func injectUser(u *url.URL, user, password string) {
	if u.User != nil || user == "" {
		return
	}
	if password == "" {
		u.User = url.User(user)
		return
	}
	u.User = url.UserPassword(user, password)
}

// sqlServerDSN accepts both the JDBC property form
// (host:port;databaseName=db;encrypt=true) and a native sqlserver URL tail.
func sqlServerDSN(rest, user, password string) (string, error) {
	if !strings.Contains(rest, ";") {
		u, err := url.Parse("sqlserver://" + rest)
		if err != nil {
			return "", fmt.Errorf("sink url: %w", err)
		}
		injectUser(u, user, password)
		return u.String(), nil
	}

	parts := strings.Split(rest, ";")
	host := parts[0]
	q := url.Values{}
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return "", fmt.Errorf("sink url: malformed sqlserver property %q", p)
		}
		switch strings.ToLower(k) {
		case "databasename", "database":
			q.Set("database", v)
		case "user":
			if user == "" {
				user = v
			}
		case "password":
			if password == "" {
				password = v
			}
		default:
			q.Set(k, v)
		}
	}

	u := &url.URL{Scheme: "sqlserver", RawQuery: q.Encode()}
	if h, inst, ok := strings.Cut(host, `\`); ok {
		u.Host, u.Path = h, "/"+inst
	} else {
		u.Host = host
	}
	injectUser(u, user, password)
	return u.String(), nil
}

func mysqlDSN(s, user, password string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("sink url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.User, cfg.Passwd = user, password
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	for k, vs := range u.Query() {
		if _, skip := mysqlJDBCOnly[strings.ToLower(k)]; skip || len(vs) == 0 {
			continue
		}
		if k == "user" || k == "password" {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[k] = vs[0]
	}
	return cfg.FormatDSN(), nil
}
