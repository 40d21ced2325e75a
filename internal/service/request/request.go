// internal/service/request/request.go
package request

import (
	"context"
	"fmt"

	"mohandz-service/internal/domain/request"
	xerrors "mohandz-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestRepository interface {
	List(ctx context.Context, f request.ListFilter) ([]request.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id int64, status request.Status) error
	Delete(ctx context.Context, id int64) error
}

type ContactRepository interface {
	List(ctx context.Context, limit, offset int) ([]request.ContactMessage, error)
	Delete(ctx context.Context, id int64) error
}

// RequestService manages stored service requests and contact messages.
type RequestService struct {
	requests RequestRepository
	contacts ContactRepository
	logger   *zap.Logger
}

func NewRequestService(requests RequestRepository, contacts ContactRepository, logger *zap.Logger) *RequestService {
	return &RequestService{requests: requests, contacts: contacts, logger: logger}
}

// ListRequests lists requests, optionally narrowed to one status.
func (s *RequestService) ListRequests(ctx context.Context, status string, limit, offset int) ([]request.ServiceRequest, error) {
	f := request.ListFilter{Limit: limit, Offset: offset}
	if status != "" {
		st, ok := request.ParseStatus(status)
		if !ok {
			return nil, xerrors.Invalid("status", "oneof")
		}
		f.Status = st
	}
	return s.requests.List(ctx, f)
}

// ListUserRequests lists the requests a signed-in user submitted.
func (s *RequestService) ListUserRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]request.ServiceRequest, error) {
	return s.requests.List(ctx, request.ListFilter{UserID: &userID, Limit: limit, Offset: offset})
}

func (s *RequestService) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	st, ok := request.ParseStatus(status)
	if !ok {
		return xerrors.Invalid("status", "oneof")
	}
	if err := s.requests.UpdateStatus(ctx, id, st); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	s.logger.Info("request status updated", zap.Int64("request_id", id), zap.String("status", status))
	return nil
}

func (s *RequestService) DeleteRequest(ctx context.Context, id int64) error {
	if err := s.requests.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	s.logger.Info("request deleted", zap.Int64("request_id", id))
	return nil
}

func (s *RequestService) ListContacts(ctx context.Context, limit, offset int) ([]request.ContactMessage, error) {
	return s.contacts.List(ctx, limit, offset)
}

func (s *RequestService) DeleteContact(ctx context.Context, id int64) error {
	if err := s.contacts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	s.logger.Info("contact message deleted", zap.Int64("contact_id", id))
	return nil
}
