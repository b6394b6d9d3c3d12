// internal/store/positions.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"recruitment-portal/internal/common/logger"
	"recruitment-portal/internal/models"
)

func (s *Store) ActivePositions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(department, ''), is_active
		FROM positions WHERE is_active = true ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.Title, &p.Department, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *Store) GetPosition(ctx context.Context, id string) (*models.Position, error) {
	var p models.Position
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(department, ''), is_active FROM positions WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Department, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get position %s: %w", id, err)
	}
	return &p, nil
}

type PositionSource interface {
	ActivePositions(ctx context.Context) ([]models.Position, error)
}

const activePositionsKey = "positions:active"

// CachedPositions keeps the active position list in Redis. Cache errors fall
// through to the source.
type CachedPositions struct {
	source PositionSource
	rdb    redis.Cmdable
	ttl    time.Duration
	log    logger.Logger
}

func NewCachedPositions(source PositionSource, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedPositions {
	return &CachedPositions{
		source: source,
		rdb:    rdb,
		ttl:    ttl,
		log:    log.WithFields(map[string]interface{}{"component": "position-cache"}),
	}
}

func (c *CachedPositions) ActivePositions(ctx context.Context) ([]models.Position, error) {
	cached, err := c.rdb.Get(ctx, activePositionsKey).Bytes()
	switch {
	case err == nil:
		var positions []models.Position
		if jsonErr := json.Unmarshal(cached, &positions); jsonErr == nil {
			return positions, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn("position cache read failed", map[string]interface{}{"error": err})
	}

	positions, err := c.source.ActivePositions(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(positions); err == nil {
		if err := c.rdb.Set(ctx, activePositionsKey, payload, c.ttl).Err(); err != nil {
			c.log.Warn("position cache write failed", map[string]interface{}{"error": err})
		}
	}
	return positions, nil
}

// Invalidate drops the cached list.
func (c *CachedPositions) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, activePositionsKey).Err()
}
