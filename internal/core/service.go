package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/sheet-inbox/internal/blocklist"
	"github.com/mikey/sheet-inbox/internal/inbox"
	"github.com/mikey/sheet-inbox/internal/sheet"
)

// FeedSettings holds what the service needs to turn sheets into contacts
type FeedSettings struct {
	Sources      []Source
	Columns      inbox.Columns
	TimeParser   *inbox.TimeParser
	RecentWindow time.Duration
	Greeting     string
	ReplyBaseURL string
	DraftTimeout time.Duration
}

// InboxService is the core service: it refreshes the contact groups from the
// spreadsheet sources and serves them together with the overlay marks
type InboxService struct {
	source   SheetSource
	drafter  ReplyDrafter
	notifier Notifier
	blocked  *blocklist.Checker
	logger   *zap.Logger
	settings FeedSettings
	overlay  *inbox.Overlay
	now      func() time.Time

	// refreshMu serializes whole refresh cycles; mu guards groups and status
	// and is held across overlay writes so marks never outlive their group
	refreshMu sync.Mutex
	mu        sync.RWMutex
	groups    []inbox.Group
	status    Status
}

// NewInboxService creates a new inbox service. drafter and notifier may be nil.
func NewInboxService(
	source SheetSource,
	drafter ReplyDrafter,
	notifier Notifier,
	blocked *blocklist.Checker,
	logger *zap.Logger,
	settings FeedSettings,
) *InboxService {
	if settings.TimeParser == nil {
		settings.TimeParser = inbox.NewTimeParser(nil, nil)
	}
	if settings.Columns == (inbox.Columns{}) {
		settings.Columns = inbox.DefaultColumns()
	}
	if settings.ReplyBaseURL == "" {
		settings.ReplyBaseURL = inbox.DefaultReplyBaseURL
	}

	return &InboxService{
		source:   source,
		drafter:  drafter,
		notifier: notifier,
		blocked:  blocked,
		logger:   logger,
		settings: settings,
		overlay:  inbox.NewOverlay(),
		now:      time.Now,
		groups:   make([]inbox.Group, 0),
	}
}

// Refresh fetches every source, regroups the records and replaces the current
// groups. If any source fails the cycle fails and the previous groups stay.
// Overlapping calls run one after the other.
func (s *InboxService) Refresh(ctx context.Context) (*RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	cycleID := uuid.NewString()
	started := s.now()
	logger := s.logger.With(zap.String("cycle_id", cycleID))

	if len(s.settings.Sources) == 0 {
		s.recordFailure(cycleID, started, ErrNoSources)
		return nil, ErrNoSources
	}

	snapshots := make([]*Snapshot, len(s.settings.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.settings.Sources {
		g.Go(func() error {
			snap, err := s.source.Fetch(gctx, src)
			if err != nil {
				return fmt.Errorf("failed to fetch source %s: %w", src.ID, err)
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Refresh failed, keeping previous contacts", zap.Error(err))
		s.recordFailure(cycleID, started, err)
		return nil, err
	}

	records := make([]sheet.Record, 0)
	fromCache := false
	for _, snap := range snapshots {
		records = append(records, sheet.Parse(string(snap.Body))...)
		fromCache = fromCache || snap.FromCache
	}

	groups := s.dropBlocked(inbox.GroupRecords(records, s.settings.Columns, s.settings.TimeParser))
	now := s.now()

	s.mu.Lock()
	firstLoad := !s.status.Loaded
	previous := make(map[string]struct{}, len(s.groups))
	for _, prev := range s.groups {
		previous[prev.Key] = struct{}{}
	}
	s.groups = groups
	s.status = Status{
		CycleID:     cycleID,
		LastAttempt: started,
		LastSuccess: now,
		FromCache:   fromCache,
		Sources:     len(snapshots),
		Records:     len(records),
		Groups:      len(groups),
		Loaded:      true,
	}
	dropped := s.overlay.Retain(inbox.Keys(groups))
	s.mu.Unlock()

	if dropped > 0 {
		logger.Debug("Dropped marks of vanished contacts", zap.Int("dropped", dropped))
	}

	fresh := make([]ContactView, 0)
	if !firstLoad {
		for _, grp := range inbox.Rank(groups) {
			if _, seen := previous[grp.Key]; seen {
				continue
			}
			if inbox.IsRecent(grp, now, s.settings.RecentWindow) {
				fresh = append(fresh, s.view(grp, now))
			}
		}
	}
	if len(fresh) > 0 && s.notifier != nil {
		if err := s.notifier.NotifyNewContacts(ctx, fresh); err != nil {
			logger.Warn("Failed to notify new contacts", zap.Error(err))
		}
	}

	result := &RefreshResult{
		CycleID:     cycleID,
		Sources:     len(snapshots),
		Records:     len(records),
		Groups:      len(groups),
		NewContacts: len(fresh),
		FromCache:   fromCache,
		Duration:    now.Sub(started),
	}

	logger.Info("Refreshed contacts",
		zap.Int("sources", result.Sources),
		zap.Int("records", result.Records),
		zap.Int("groups", result.Groups),
		zap.Int("new_contacts", result.NewContacts),
		zap.Bool("from_cache", fromCache))

	return result, nil
}

func (s *InboxService) dropBlocked(groups []inbox.Group) []inbox.Group {
	if s.blocked.Len() == 0 {
		return groups
	}
	out := make([]inbox.Group, 0, len(groups))
	for _, g := range groups {
		if s.blocked.IsBlocked(g.Key) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func (s *InboxService) recordFailure(cycleID string, at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.CycleID = cycleID
	s.status.LastAttempt = at
	s.status.LastError = err.Error()
}

// List returns the visible contacts ranked by recency, filtered by query
func (s *InboxService) List(query string) []ContactView {
	s.mu.RLock()
	groups := s.groups
	s.mu.RUnlock()

	now := s.now()
	visible := inbox.View(groups, s.overlay, query)
	views := make([]ContactView, 0, len(visible))
	for _, g := range visible {
		views = append(views, s.view(g, now))
	}
	return views
}

// Groups returns the current groups ranked by recency, deleted ones included
func (s *InboxService) Groups() []inbox.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return inbox.Rank(s.groups)
}

// Contact returns one contact by phone key, even if it is marked deleted
func (s *InboxService) Contact(phone string) (ContactView, error) {
	g, ok := s.find(phone)
	if !ok {
		return ContactView{}, fmt.Errorf("%w: %s", ErrUnknownContact, phone)
	}
	return s.view(g, s.now()), nil
}

func (s *InboxService) find(phone string) (inbox.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(phone)
}

func (s *InboxService) findLocked(phone string) (inbox.Group, bool) {
	for _, g := range s.groups {
		if g.Key == phone {
			return g, true
		}
	}
	return inbox.Group{}, false
}

func (s *InboxService) view(g inbox.Group, now time.Time) ContactView {
	flags := s.overlay.Flags(g.Key)
	return ContactView{
		Phone:        g.Key,
		Messages:     g.Messages,
		MessageCount: len(g.Messages),
		Latest:       g.Latest,
		LatestRaw:    g.LatestRaw,
		Recent:       inbox.IsRecent(g, now, s.settings.RecentWindow),
		Checked:      flags.Checked,
		Deleted:      flags.Deleted,
		ReplyURL:     inbox.ReplyLink(s.settings.ReplyBaseURL, g.Key, s.settings.Greeting),
	}
}

// mark applies fn to the overlay while phone is known to be in the current groups
func (s *InboxService) mark(phone string, fn func(*inbox.Overlay)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.findLocked(phone); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContact, phone)
	}
	fn(s.overlay)
	return nil
}

// SetChecked marks or unmarks a contact as handled
func (s *InboxService) SetChecked(phone string, checked bool) error {
	if err := s.mark(phone, func(ov *inbox.Overlay) { ov.SetChecked(phone, checked) }); err != nil {
		return err
	}
	s.logger.Debug("Contact checked", zap.String("phone", phone), zap.Bool("checked", checked))
	return nil
}

// Delete hides a contact until it is restored, the overlay is reset or the
// phone disappears from the sheet
func (s *InboxService) Delete(phone string) error {
	if err := s.mark(phone, func(ov *inbox.Overlay) { ov.Delete(phone) }); err != nil {
		return err
	}
	s.logger.Debug("Contact deleted", zap.String("phone", phone))
	return nil
}

// Restore undoes Delete
func (s *InboxService) Restore(phone string) error {
	if err := s.mark(phone, func(ov *inbox.Overlay) { ov.Restore(phone) }); err != nil {
		return err
	}
	s.logger.Debug("Contact restored", zap.String("phone", phone))
	return nil
}

// ResetOverlay clears every checked and deleted mark
func (s *InboxService) ResetOverlay() {
	s.overlay.Reset()
	s.logger.Info("Overlay reset")
}

// DraftReply returns an opening message for a contact. Without a drafter, or
// when it fails, the configured greeting is used.
func (s *InboxService) DraftReply(ctx context.Context, phone string) (*ReplyDraft, error) {
	contact, err := s.Contact(phone)
	if err != nil {
		return nil, err
	}

	draft := &ReplyDraft{
		Phone:       phone,
		Text:        s.settings.Greeting,
		Source:      "greeting",
		GeneratedAt: s.now(),
	}

	if s.drafter != nil {
		dctx := ctx
		if s.settings.DraftTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, s.settings.DraftTimeout)
			defer cancel()
		}

		generated, err := s.drafter.DraftReply(dctx, &contact)
		switch {
		case err != nil:
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			s.logger.Warn("Reply drafter failed, using greeting",
				zap.String("phone", phone), zap.Error(err))
		case generated == nil || generated.Text == "":
			s.logger.Warn("Reply drafter returned nothing, using greeting", zap.String("phone", phone))
		default:
			draft.Text = generated.Text
			draft.Source = generated.Source
		}
	}

	draft.URL = inbox.ReplyLink(s.settings.ReplyBaseURL, phone, draft.Text)
	return draft, nil
}

// Status returns the state of the latest refresh
func (s *InboxService) Status() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	st.Marked = s.overlay.Len()
	return st
}

// Overlay exposes the current marks
func (s *InboxService) Overlay() map[string]inbox.Flags {
	return s.overlay.Snapshot()
}
