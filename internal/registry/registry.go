// Package registry creates and edits asset records. It derives each record's
// identifier, rejects identifiers another row already owns, and merges
// partial edits with the stored values before writing them back.
//
// Writes are serialized per identifier inside one process. Two processes
// sharing a sheet can still both pass the collision check before either
// writes; the store offers no uniqueness constraint to close that gap.
package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"powder-inventory/internal/assetid"
	"powder-inventory/internal/auth"
	"powder-inventory/internal/models"
	"powder-inventory/internal/store"
)

// maxRenameAttempts bounds how often UpdateRecord re-reads a row whose
// derived identifier moved while it was waiting for locks.
const maxRenameAttempts = 3

// Service is the record reconciliation engine.
type Service struct {
	store   store.Store
	gate    *auth.Gate
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
	locks   *keyLocker
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics enables operation counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New returns a Service writing through st and admitting identities via gate.
func New(st store.Store, gate *auth.Gate, opts ...Option) *Service {
	s := &Service{
		store:  st,
		gate:   gate,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:  newKeyLocker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() string {
	return models.FormatTimestamp(s.now())
}

// CreateRecord appends a new row for fields and returns its identifier. It
// fails with a *ConflictError when a row already carries the identifier.
func (s *Service) CreateRecord(ctx context.Context, fields models.Fields, updatedBy string, actor *auth.Identity) (assetID string, err error) {
	defer func() { s.metrics.observe("create", err) }()

	if err := s.gate.Allow(actor); err != nil {
		return "", err
	}

	assetID = assetid.Derive(fields)
	unlock := s.locks.Lock(assetID)
	defer unlock()

	_, err = s.store.FindRow(ctx, assetID)
	switch {
	case err == nil:
		s.logger.Warn("create rejected: asset id exists", "asset_id", assetID, "actor", actor.Email)
		return "", &ConflictError{AssetID: assetID}
	case !errors.Is(err, store.ErrNotFound):
		s.logger.Error("create: find row failed", "asset_id", assetID, "error", err)
		return "", err
	}

	rec := models.Asset{
		AssetID:     assetID,
		Fields:      fields,
		LastUpdated: s.timestamp(),
		UpdatedBy:   updatedBy,
	}
	if err := s.store.AppendRow(ctx, rec.Row()); err != nil {
		s.logger.Error("create: append row failed", "asset_id", assetID, "error", err)
		return "", err
	}

	s.logger.Info("asset created", "asset_id", assetID, "actor", actor.Email)
	return assetID, nil
}

// UpdateRecord merges the non-blank values of fields and updatedBy into the
// row identified by existingID, recomputes the identifier and rewrites the
// row in place. It fails with ErrNotFound when existingID is absent and with
// a *ConflictError when the new identifier belongs to a different row.
func (s *Service) UpdateRecord(ctx context.Context, existingID string, fields models.Fields, updatedBy string, actor *auth.Identity) (newID string, err error) {
	defer func() { s.metrics.observe("update", err) }()

	if err := s.gate.Allow(actor); err != nil {
		return "", err
	}

	existingID = strings.TrimSpace(existingID)
	keys := []string{existingID}
	for attempt := 1; ; attempt++ {
		unlock := s.locks.Lock(keys...)
		newID, retry, err := s.update(ctx, existingID, fields, updatedBy, keys, attempt >= maxRenameAttempts)
		unlock()
		if retry == "" {
			if err == nil {
				s.logger.Info("asset updated", "asset_id", newID, "previous_id", existingID, "actor", actor.Email)
			}
			return newID, err
		}
		keys = []string{existingID, retry}
	}
}

// update runs one locked attempt. When the merged identifier is not among
// the held keys and force is false it returns that identifier as retry so the
// caller can lock it too.
func (s *Service) update(ctx context.Context, existingID string, fields models.Fields, updatedBy string, held []string, force bool) (newID, retry string, err error) {
	row, err := s.store.FindRow(ctx, existingID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("update: find row failed", "asset_id", existingID, "error", err)
		}
		return "", "", err
	}

	current, err := s.store.ReadRow(ctx, row)
	if err != nil {
		s.logger.Error("update: read row failed", "asset_id", existingID, "row", int(row), "error", err)
		return "", "", err
	}
	stored := models.AssetFromRow(current)

	merged := stored.Fields.Merge(fields)
	newID = assetid.Derive(merged)

	if newID != existingID {
		if !force && !contains(held, newID) {
			return "", newID, nil
		}
		other, err := s.store.FindRow(ctx, newID)
		switch {
		case err == nil && other != row:
			s.logger.Warn("update rejected: asset id owned by another row",
				"asset_id", existingID, "new_asset_id", newID, "row", int(row), "other_row", int(other))
			return "", "", &ConflictError{AssetID: newID}
		case err != nil && !errors.Is(err, store.ErrNotFound):
			s.logger.Error("update: find row failed", "asset_id", newID, "error", err)
			return "", "", err
		}
	}

	rec := models.Asset{
		AssetID:     newID,
		Fields:      merged,
		LastUpdated: s.timestamp(),
		UpdatedBy:   models.Pick(updatedBy, stored.UpdatedBy),
	}
	if err := s.store.WriteCells(ctx, row, rec.Row()); err != nil {
		s.logger.Error("update: write cells failed", "asset_id", newID, "row", int(row), "error", err)
		return "", "", err
	}
	return newID, "", nil
}

// ListIdentifiers returns every stored identifier in row order.
func (s *Service) ListIdentifiers(ctx context.Context, actor *auth.Identity) (ids []string, err error) {
	defer func() { s.metrics.observe("list", err) }()

	if err := s.gate.Allow(actor); err != nil {
		return nil, err
	}
	ids, err = s.store.ListKeys(ctx)
	if err != nil {
		s.logger.Error("list: read keys failed", "error", err)
		return nil, err
	}
	return ids, nil
}

// ReadRecord returns the record stored under assetID.
func (s *Service) ReadRecord(ctx context.Context, assetID string, actor *auth.Identity) (rec *models.Asset, err error) {
	defer func() { s.metrics.observe("read", err) }()

	if err := s.gate.Allow(actor); err != nil {
		return nil, err
	}
	row, err := s.store.FindRow(ctx, assetID)
	if err != nil {
		return nil, err
	}
	cells, err := s.store.ReadRow(ctx, row)
	if err != nil {
		s.logger.Error("read: read row failed", "asset_id", assetID, "error", err)
		return nil, err
	}
	a := models.AssetFromRow(cells)
	return &a, nil
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
