package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ActivityLogFileName is the log the consumer appends to under the data directory
const ActivityLogFileName = "booking-activity.log"

// ActivityLog appends one JSON line per booking status event
type ActivityLog struct {
	mu     sync.Mutex
	file   *os.File
	logger *logrus.Logger
}

// OpenActivityLog opens (or creates) the activity log under dataDir
func OpenActivityLog(dataDir string) (*ActivityLog, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, ActivityLogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	return &ActivityLog{file: f, logger: logger}, nil
}

// Handle is a consumer Handler writing the event to the log
func (a *ActivityLog) Handle(_ context.Context, event BookingStatusEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{
		"booking_reference": event.BookingReference,
		"previous_status":   event.PreviousStatus,
		"status":            event.Status,
		"source":            event.Source,
		"event_id":          event.EventID,
		"amount":            event.Amount,
		"currency":          event.Currency,
		"occurred_at":       event.OccurredAt.Format(time.RFC3339),
	}).Info("Booking status changed")
	return nil
}

// Close closes the underlying file
func (a *ActivityLog) Close() error {
	return a.file.Close()
}
