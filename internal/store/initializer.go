package store

import (
	"context"
	"fmt"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/vault"
)

// Initialize builds every configured store adapter. A store is configured
// when its host is set. Credentials come from the config groups, or from
// Vault when the group declares a role or secret path and a client is given.
func Initialize(
	ctx context.Context,
	cfg config.Config,
	vaultClient *vault.Client,
) ([]Store, error) {
	var stores []Store

	if cfg.Postgres.Host != "" {
		var opts []PostgresOption
		if vaultClient != nil && cfg.Postgres.RolePath != "" {
			creds, err := vaultClient.GetDynamicCredentials(ctx, cfg.Postgres.RolePath)
			if err != nil {
				return nil, fmt.Errorf("vault read for postgres: %w", err)
			}
			opts = append(opts, WithPostgresCredentials(creds.Username, creds.Password))
		}
		stores = append(stores, NewPostgres(cfg, opts...))
	}

	if cfg.MongoDB.Host != "" {
		var opts []MongoDBOption
		if vaultClient != nil && cfg.MongoDB.RolePath != "" {
			creds, err := vaultClient.GetDynamicCredentials(ctx, cfg.MongoDB.RolePath)
			if err != nil {
				return nil, fmt.Errorf("vault read for mongodb: %w", err)
			}
			opts = append(opts, WithMongoCredentials(creds.Username, creds.Password))
		}
		stores = append(stores, NewMongoDB(cfg, opts...))
	}

	if cfg.Redis.Host != "" {
		var opts []RedisOption
		if vaultClient != nil && cfg.Redis.SecretPath != "" {
			creds, err := vaultClient.GetStaticCredentials(ctx, cfg.Redis.SecretPath)
			if err != nil {
				return nil, fmt.Errorf("vault read for redis: %w", err)
			}
			opts = append(opts, WithRedisPassword(creds.Password))
		}
		stores = append(stores, NewRedis(cfg, opts...))
	}

	return stores, nil
}
