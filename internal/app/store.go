package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/team-schedule/internal/config"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
	"github.com/riskibarqy/team-schedule/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/team-schedule/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/team-schedule/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

const (
	dbPingTimeout        = 5 * time.Second
	maxTracedQueryLength = 512
)

// openTeamRepository selects the team store from cfg. The returned db is nil
// for the memory store.
func openTeamRepository(ctx context.Context, cfg config.Config, clock clockwork.Clock, logger *logging.Logger) (team.Repository, *sqlx.DB, error) {
	var (
		repo team.Repository
		db   *sqlx.DB
	)

	switch cfg.StoreDriver {
	case config.StorePostgres:
		var err error
		db, err = openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo = postgres.NewTeamRepository(db)
		logger.Info("team store ready", "driver", cfg.StoreDriver, "db_name", dbNameFromURL(cfg.DBURL))
	case config.StoreMemory, "":
		repo = memory.NewTeamRepository()
		logger.Info("team store ready", "driver", config.StoreMemory)
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if cfg.CacheEnabled {
		repo = cache.NewTeamRepository(repo, cache.NewTeamStore(cfg.CacheTTL, clock))
	}
	return repo, db, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// normalizeDBURL adds disable_prepared_binary_result=yes to URL-style DSNs
// unless the caller already set it. Keyword DSNs are returned unchanged.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromURL reads the database name from a URL path or a dbname= keyword.
func dbNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		if name := strings.Trim(parsed.Path, "/ "); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(raw) {
		if value, ok := strings.CutPrefix(token, "dbname="); ok {
			if name := strings.Trim(value, `"' `); name != "" {
				return name
			}
		}
	}
	return ""
}

// formatDBQueryForTrace collapses whitespace and caps the statement recorded on spans.
func formatDBQueryForTrace(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
