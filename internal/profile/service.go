package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agendapp/office-service/internal/validation"
	"go.uber.org/zap"
)

type ServiceInterface interface {
	GetProfile(ctx context.Context, ownerID, email string) (*Profile, error)
	UpdateProfile(ctx context.Context, ownerID string, req UpdateProfileRequest) (*Profile, error)
}

// MetricsRecorder is satisfied by *telemetry.Metrics.
type MetricsRecorder interface {
	RecordCacheResult(ctx context.Context, result string)
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	repo    RepositoryInterface
	cache   Cache
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewService wires the profile service. cache and metrics may be nil; a nil
// cache reads straight from the database.
func NewService(repo RepositoryInterface, cache Cache, metrics MetricsRecorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// GetProfile returns the owner's profile, creating an empty one seeded with
// email on first access.
func (s *Service) GetProfile(ctx context.Context, ownerID, email string) (*Profile, error) {
	if p := s.cached(ctx, ownerID); p != nil {
		return p, nil
	}

	p, err := s.repo.GetProfile(ctx, ownerID)
	if errors.Is(err, ErrProfileNotFound) {
		p, err = s.repo.UpsertProfile(ctx, Profile{OwnerID: ownerID, Email: email})
		if err == nil {
			s.logger.Info("✓ Default profile created", zap.String("owner_id", ownerID))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.logger.Warn("profile cache write failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, ownerID string, req UpdateProfileRequest) (*Profile, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validation.Message(err))
	}

	p, err := s.repo.UpsertProfile(ctx, Profile{
		OwnerID:       ownerID,
		FullName:      req.FullName,
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		Specialty:     strings.TrimSpace(req.Specialty),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         req.Email,
		LetterheadURL: req.LetterheadURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, ownerID); err != nil {
			s.logger.Warn("profile cache eviction failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}
	s.logger.Info("✓ Profile updated", zap.String("owner_id", ownerID))
	return p, nil
}

// cached returns the cached profile or nil. Cache errors are logged and
// treated as a miss.
func (s *Service) cached(ctx context.Context, ownerID string) *Profile {
	if s.cache == nil {
		return nil
	}
	p, err := s.cache.Get(ctx, ownerID)
	switch {
	case err == nil:
		s.record(ctx, "hit")
		return p
	case errors.Is(err, ErrCacheMiss):
		s.record(ctx, "miss")
	default:
		s.record(ctx, "error")
		s.logger.Warn("profile cache read failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return nil
}

func (s *Service) record(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheResult(ctx, result)
	}
}
