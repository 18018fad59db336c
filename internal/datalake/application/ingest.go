package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hotelops/roster/internal/datalake/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
)

// OccupancyRecord is one normalized occupancy observation produced by an
// external report parser. Parsing itself is out of scope here.
type OccupancyRecord struct {
	TargetDate   time.Time
	GeneratedAt  time.Time
	OccupancyPct float64
	IsReal       bool
}

// FrontdeskRecord is one normalized check-in/check-out observation.
type FrontdeskRecord struct {
	EventType  domain.EventType
	AnchorDate time.Time
	EventTime  *time.Time
}

// IngestResult reports the outcome of one upload.
type IngestResult struct {
	UploadID         uuid.UUID
	AlreadyIngested  bool
	RecordsIngested  int
	ProjectionsTouch int
}

// IngestService writes normalized records into the data lake with
// content-hash idempotency.
type IngestService struct {
	store  domain.Store
	uow    sharedApplication.UnitOfWork
	redis  *redis.Client // optional fast path; nil skips
	logger *slog.Logger
}

// NewIngestService creates an ingest service. The redis client may be nil.
func NewIngestService(store domain.Store, uow sharedApplication.UnitOfWork, redisClient *redis.Client, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{store: store, uow: uow, redis: redisClient, logger: logger}
}

// ContentHash computes the idempotency key for an uploaded artifact.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// IngestOccupancy stores occupancy snapshots and folds them into the latest
// projection. Re-ingesting the same content returns the prior upload id and
// leaves the store unchanged.
func (s *IngestService) IngestOccupancy(ctx context.Context, records []OccupancyRecord, content []byte) (*IngestResult, error) {
	hash := ContentHash(content)
	if prior, found, err := s.lookupHash(ctx, hash); err != nil {
		return nil, err
	} else if found {
		s.logger.InfoContext(ctx, "upload already ingested", "content_hash", hash, "upload_id", prior)
		return &IngestResult{UploadID: prior, AlreadyIngested: true}, nil
	}

	uploadID := uuid.New()
	result := &IngestResult{UploadID: uploadID}

	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		// Refetch inside the transaction: a concurrent ingest may have won.
		if prior, found, err := s.store.FindUploadByHash(txCtx, hash); err != nil {
			return err
		} else if found {
			result.UploadID = prior
			result.AlreadyIngested = true
			return nil
		}

		if err := s.store.RecordUpload(txCtx, uploadID, hash, "occupancy", time.Now().UTC()); err != nil {
			return err
		}

		for _, rec := range records {
			snapshot, err := domain.NewOccupancySnapshot(rec.TargetDate, rec.GeneratedAt, rec.OccupancyPct, rec.IsReal, uploadID)
			if err != nil {
				return err
			}
			if err := s.store.SaveSnapshot(txCtx, snapshot); err != nil {
				return err
			}
			result.RecordsIngested++

			latest, err := s.store.FindLatest(txCtx, snapshot.TargetDate)
			if err != nil {
				return err
			}
			if latest == nil {
				latest = &domain.OccupancyLatest{TargetDate: snapshot.TargetDate}
			}
			if latest.Apply(snapshot) {
				if err := s.store.SaveLatest(txCtx, latest); err != nil {
					return err
				}
				result.ProjectionsTouch++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyIngested {
		s.cacheHash(ctx, hash, result.UploadID)
	}
	return result, nil
}

// IngestFrontdesk stores frontdesk events as hourly aggregates.
func (s *IngestService) IngestFrontdesk(ctx context.Context, records []FrontdeskRecord, content []byte) (*IngestResult, error) {
	hash := ContentHash(content)
	if prior, found, err := s.lookupHash(ctx, hash); err != nil {
		return nil, err
	} else if found {
		return &IngestResult{UploadID: prior, AlreadyIngested: true}, nil
	}

	uploadID := uuid.New()
	result := &IngestResult{UploadID: uploadID}

	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		if prior, found, err := s.store.FindUploadByHash(txCtx, hash); err != nil {
			return err
		} else if found {
			result.UploadID = prior
			result.AlreadyIngested = true
			return nil
		}

		if err := s.store.RecordUpload(txCtx, uploadID, hash, "frontdesk", time.Now().UTC()); err != nil {
			return err
		}

		events := make([]*domain.FrontdeskEvent, 0, len(records))
		for _, rec := range records {
			events = append(events, domain.NewFrontdeskEvent(rec.EventType, rec.AnchorDate, rec.EventTime, uploadID))
		}
		aggs := domain.Aggregate(events)
		if err := s.store.UpsertHourlyAggs(txCtx, aggs); err != nil {
			return err
		}
		result.RecordsIngested = len(events)
		result.ProjectionsTouch = len(aggs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyIngested {
		s.cacheHash(ctx, hash, result.UploadID)
	}
	return result, nil
}

// lookupHash consults Redis first, then the authoritative ledger.
func (s *IngestService) lookupHash(ctx context.Context, hash string) (uuid.UUID, bool, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, ingestKey(hash)).Result(); err == nil {
			if id, parseErr := uuid.Parse(val); parseErr == nil {
				return id, true, nil
			}
		} else if err != redis.Nil {
			s.logger.WarnContext(ctx, "redis ingest lookup failed", "error", err)
		}
	}
	return s.store.FindUploadByHash(ctx, hash)
}

func (s *IngestService) cacheHash(ctx context.Context, hash string, uploadID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, ingestKey(hash), uploadID.String(), 7*24*time.Hour).Err(); err != nil {
		s.logger.WarnContext(ctx, "redis ingest cache failed", "error", err)
	}
}

func ingestKey(hash string) string {
	return "roster:ingest:" + hash
}
