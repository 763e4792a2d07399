//go:build deps

package chefbridge

// Force module dependencies for packages used across the project.
import (
	_ "github.com/go-chi/chi/v5"
	_ "github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/redis/go-redis/v9"
	_ "github.com/segmentio/kafka-go"
	_ "gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)
