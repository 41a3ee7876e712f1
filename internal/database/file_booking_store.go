package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cretedrive/rental-booking-backend/internal/models"
)

// BookingsFileName is the file the fallback store keeps under its data directory
const BookingsFileName = "bookings.json"

// FileBookingStore keeps bookings in a single JSON file. It serves as the
// degraded read path when postgres is down and as the store for local runs.
type FileBookingStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileBookingStore creates the data directory if needed
func NewFileBookingStore(dataDir string) (*FileBookingStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBookingStore{path: filepath.Join(dataDir, BookingsFileName)}, nil
}

// Path returns the location of the bookings file
func (s *FileBookingStore) Path() string {
	return s.path
}

func (s *FileBookingStore) load() ([]models.Booking, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bookings file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings file: %w", err)
	}
	return bookings, nil
}

// save writes to a temp file and renames it over the old one
func (s *FileBookingStore) save(bookings []models.Booking) error {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bookings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bookings-*.json")
	if err != nil {
		return fmt.Errorf("failed to write bookings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bookings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write bookings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace bookings file: %w", err)
	}
	return nil
}

func indexOf(bookings []models.Booking, reference string) int {
	for i := range bookings {
		if bookings[i].BookingReference == reference {
			return i
		}
	}
	return -1
}

// Create appends a booking. A taken reference returns models.ErrDuplicateReference.
func (s *FileBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.load()
	if err != nil {
		return err
	}
	if indexOf(bookings, booking.BookingReference) >= 0 {
		return models.ErrDuplicateReference
	}

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}

	return s.save(append(bookings, *booking))
}

// GetByReference retrieves a booking by its reference
func (s *FileBookingStore) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(bookings, reference)
	if i < 0 {
		return nil, models.ErrBookingNotFound
	}
	booking := bookings[i]
	return &booking, nil
}

// ReferenceExists reports whether a booking already uses reference
func (s *FileBookingStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	_, err := s.GetByReference(ctx, reference)
	if errors.Is(err, models.ErrBookingNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpdateStatus applies update if the stored status still equals update.From
func (s *FileBookingStore) UpdateStatus(ctx context.Context, update models.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(bookings, update.Reference)
	if i < 0 {
		return models.ErrBookingNotFound
	}
	if bookings[i].Status != update.From {
		return models.ErrStatusConflict
	}

	bookings[i] = bookings[i].ApplyStatusUpdate(update)
	return s.save(bookings)
}

// List returns bookings newest-first by last activity
func (s *FileBookingStore) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	s.mu.RLock()
	bookings, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	result := make([]models.Booking, 0, len(bookings))
	for _, booking := range bookings {
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		result = append(result, booking)
	}

	SortNewestFirst(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// CountByStatus aggregates bookings per status
func (s *FileBookingStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	bookings, err := s.List(ctx, models.BookingFilter{})
	if err != nil {
		return nil, err
	}

	byStatus := make(map[models.BookingStatus]*models.StatusCount)
	for _, booking := range bookings {
		count, ok := byStatus[booking.Status]
		if !ok {
			count = &models.StatusCount{Status: booking.Status}
			byStatus[booking.Status] = count
		}
		count.Count++
		count.Revenue += booking.TotalPrice
	}

	counts := make([]models.StatusCount, 0, len(byStatus))
	for _, count := range byStatus {
		counts = append(counts, *count)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
	return counts, nil
}

// CancelStaleDrafts cancels draft bookings created before cutoff
// and returns their references
func (s *FileBookingStore) CancelStaleDrafts(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.load()
	if err != nil {
		return nil, err
	}

	var canceled []string
	now := time.Now().UTC()
	for i := range bookings {
		if bookings[i].Status == models.BookingStatusDraft && bookings[i].CreatedAt.Before(cutoff) {
			bookings[i].Status = models.BookingStatusCanceled
			bookings[i].UpdatedAt = now
			canceled = append(canceled, bookings[i].BookingReference)
		}
	}
	if len(canceled) == 0 {
		return nil, nil
	}
	if err := s.save(bookings); err != nil {
		return nil, err
	}
	return canceled, nil
}

// ReplaceAll overwrites the file with a snapshot of the authoritative store
func (s *FileBookingStore) ReplaceAll(ctx context.Context, bookings []models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(bookings)
}

// SortNewestFirst orders bookings by last activity, newest first
func SortNewestFirst(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].LastActivity().After(bookings[j].LastActivity())
	})
}
