package waitlist

//go:generate mockgen -source=service.go -destination=mock_service_test.go -package=waitlist

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/akeren/archive-waitlist/internal/log"
	"github.com/akeren/archive-waitlist/internal/models"
	"github.com/akeren/archive-waitlist/internal/objectstore"
	"github.com/akeren/archive-waitlist/internal/session"
	"github.com/akeren/archive-waitlist/pkg/constants"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/archive-waitlist/domain/waitlist"

type WaitlistService interface {
	// Join validates the request, uploads the optional attachment and records a pending entry.
	Join(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResponse, error)

	// ListEntries returns every entry to an authenticated caller.
	ListEntries(ctx context.Context) ([]WaitlistEntryResponse, error)
}

// AttachmentStore is the part of the object store the pipeline needs.
type AttachmentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*objectstore.PutResult, error)
	Delete(ctx context.Context, key string) error
}

type ServiceOptions struct {
	MaxAttachmentBytes int64
	Metrics            prometheus.Registerer
	// KeySuffix overrides the random key disambiguator.
	KeySuffix func() string
}

type waitlistService struct {
	logger             *log.Logger
	repository         WaitlistRepository
	store              AttachmentStore
	maxAttachmentBytes int64
	keySuffix          func() string
	metrics            *joinMetrics
	tracer             trace.Tracer
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, store AttachmentStore, opts ServiceOptions) WaitlistService {
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = constants.DefaultMaxAttachmentBytes
	}
	if opts.KeySuffix == nil {
		opts.KeySuffix = randomKeySuffix
	}

	return &waitlistService{
		logger:             logger,
		repository:         repository,
		store:              store,
		maxAttachmentBytes: opts.MaxAttachmentBytes,
		keySuffix:          opts.KeySuffix,
		metrics:            newJoinMetrics(opts.Metrics),
		tracer:             otel.Tracer(tracerName),
	}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResponse, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.Join")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	outcome, err := s.join(ctx, logger, req, span)
	s.metrics.observe(outcome)
	span.SetAttributes(attribute.String("waitlist.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}

	return &JoinWaitlistResponse{Success: true}, nil
}

func (s *waitlistService) join(ctx context.Context, logger *log.Logger, req *JoinWaitlistRequest, span trace.Span) (string, error) {
	if req == nil {
		logger.Error("Join received empty request")
		return outcomeValidationError, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Email = strings.TrimSpace(req.Email)

	if err := requestValidator.Struct(req); err != nil {
		logger.Warn("Join rejected invalid request", "error", err)
		return outcomeValidationError, apperrors.NewInvalidRequestError("Invalid request payload", err)
	}

	if req.FileData != "" && exceedsAttachmentCeiling(req.FileData, s.maxAttachmentBytes) {
		logger.Warn("Join rejected oversized attachment", "encoded_bytes", len(req.FileData), "max_bytes", s.maxAttachmentBytes)
		return outcomeValidationError, s.tooLarge()
	}

	entry := ToWaitlistEntryModel(req)

	var uploadedKey string
	if req.hasAttachment() {
		data, err := base64.StdEncoding.DecodeString(req.FileData)
		if err != nil {
			logger.Warn("Join received undecodable attachment", "error", err)
			return outcomeValidationError, apperrors.NewInvalidRequestError("file_data must be valid base64", err)
		}
		if int64(len(data)) > s.maxAttachmentBytes {
			return outcomeValidationError, s.tooLarge()
		}

		contentType := req.FileMimeType
		if contentType == "" {
			contentType = constants.DefaultAttachmentContentType
		}

		key := buildAttachmentKey(req.Email, req.FileName, s.keySuffix())
		span.SetAttributes(attribute.Int("waitlist.attachment_bytes", len(data)))

		result, err := s.store.Put(ctx, key, data, contentType)
		if errors.Is(err, objectstore.ErrInvalidKey) {
			logger.Warn("Attachment name cannot be stored", "key", key, "error", err)
			return outcomeValidationError, apperrors.NewInvalidRequestError("file_name cannot be used for storage", err)
		}
		if err != nil {
			logger.Error("Failed to upload waitlist attachment", "key", key, "error", err)
			return outcomeStorageError, apperrors.NewStorageError("Failed to store attachment", err)
		}

		s.metrics.attachmentBytes.Observe(float64(len(data)))
		uploadedKey = result.Key

		entry.SetAttachment(models.Attachment{
			URL:      result.URL,
			Key:      result.Key,
			Filename: req.FileName,
			MimeType: contentType,
		})
	}

	if _, err := s.repository.CreateEntry(ctx, entry); err != nil {
		logger.Error("Failed to create waitlist entry", "error", err)
		if uploadedKey != "" {
			s.discardUpload(ctx, logger, uploadedKey)
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeDatabaseError) {
			err = apperrors.NewDatabaseError("unable to create waitlist entry", err)
		}
		return outcomePersistenceError, err
	}

	logger.Info("Waitlist entry created", "has_attachment", uploadedKey != "")
	return outcomeSuccess, nil
}

// discardUpload removes an attachment whose entry could not be written.
// Failure only leaves an orphaned object behind.
func (s *waitlistService) discardUpload(ctx context.Context, logger *log.Logger, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.Warn("Failed to remove orphaned attachment", "key", key, "error", err)
	}
}

func (s *waitlistService) tooLarge() error {
	return apperrors.NewInvalidRequestError(
		fmt.Sprintf("Attachment exceeds the maximum size of %d bytes", s.maxAttachmentBytes),
		nil,
	)
}

func (s *waitlistService) ListEntries(ctx context.Context) ([]WaitlistEntryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if _, ok := session.IdentityFromContext(ctx); !ok {
		logger.Warn("ListEntries called without an authenticated session")
		return nil, apperrors.NewUnauthorizedError("Please login to continue", nil)
	}

	entries, err := s.repository.ListEntries(ctx)
	if err != nil {
		logger.Error("Failed to list waitlist entries", "error", err)
		return nil, err
	}

	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}

	return responses, nil
}
