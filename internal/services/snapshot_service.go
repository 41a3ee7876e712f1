package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

// SnapshotService copies the authoritative booking store into the file fallback
type SnapshotService struct {
	source BookingReader
	target SnapshotTarget
	logger *logrus.Logger
}

// NewSnapshotService creates a snapshot service
func NewSnapshotService(source BookingReader, target SnapshotTarget, logger *logrus.Logger) *SnapshotService {
	return &SnapshotService{source: source, target: target, logger: logger}
}

// Run replaces the snapshot with every stored booking and returns how many were written.
// A failed read leaves the previous snapshot in place.
func (s *SnapshotService) Run(ctx context.Context) (int, error) {
	start := time.Now()

	bookings, err := s.source.List(ctx, models.BookingFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to read bookings for snapshot: %w", err)
	}
	if err := s.target.ReplaceAll(ctx, bookings); err != nil {
		return 0, fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"bookings": len(bookings),
		"duration": time.Since(start).String(),
	}).Info("Booking snapshot written")

	return len(bookings), nil
}
