package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"elapor/internal/cooldown"
	"elapor/internal/model"
	"elapor/internal/repository"
	"elapor/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// RosterOptions roster settings
type RosterOptions struct {
	MaxSuperAdmins int
	PageSize       int
}

// AdminRoster one admin's working copy of the admin list
type AdminRoster interface {
	// Load fetches the admin list and the caller's session; staged edits survive
	Load(ctx context.Context, accessToken string) error
	View(filter model.RosterFilter) (*model.RosterPage, error)
	StageToggle(userID string) (*model.PendingEdit, error)
	Pending() []model.PendingEdit
	// Save writes every staged edit in a single upsert
	Save(ctx context.Context) (int, error)
	Delete(ctx context.Context, userID string) error
}

// RosterProvider source of per-admin rosters
type RosterProvider interface {
	Roster(selfID string) AdminRoster
}

// RosterService hands out one Roster per acting admin
type RosterService struct {
	admins    repository.AdminRepository
	auth      AuthService
	cooldowns *cooldown.Manager
	opts      RosterOptions

	mu      sync.Mutex
	rosters map[string]*Roster
}

// NewRosterService creates the roster service; rosters are dropped on sign-out
func NewRosterService(
	admins repository.AdminRepository,
	auth AuthService,
	cooldowns *cooldown.Manager,
	opts RosterOptions,
) *RosterService {
	if opts.MaxSuperAdmins <= 0 {
		opts.MaxSuperAdmins = 3
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	s := &RosterService{
		admins:    admins,
		auth:      auth,
		cooldowns: cooldowns,
		opts:      opts,
		rosters:   make(map[string]*Roster),
	}
	auth.OnAuthStateChange(func(change model.AuthStateChange) {
		switch change.Event {
		case model.AuthEventSignedOut, model.AuthEventUserDeleted:
			s.Discard(change.UserID)
		}
	})
	return s
}

// For returns the roster owned by selfID, creating it on first use
func (s *RosterService) For(selfID string) *Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rosters[selfID]
	if !ok {
		r = &Roster{svc: s, selfID: selfID, pending: make(map[string]model.PendingEdit)}
		s.rosters[selfID] = r
	}
	return r
}

// Roster implements RosterProvider
func (s *RosterService) Roster(selfID string) AdminRoster {
	return s.For(selfID)
}

// Discard drops selfID's roster and its pending edits
func (s *RosterService) Discard(selfID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rosters, selfID)
}

// Roster one admin's loaded copy of the admin list plus staged edits
type Roster struct {
	svc *RosterService

	mu          sync.Mutex
	selfID      string
	accessToken string
	loaded      bool
	records     []model.AdminRecord
	pending     map[string]model.PendingEdit
}

// Load fetches the admin list and the session concurrently
func (r *Roster) Load(ctx context.Context, accessToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accessToken = accessToken
	return r.load(ctx)
}

// load must be called with mu held
func (r *Roster) load(ctx context.Context) error {
	var (
		records []model.AdminRecord
		session *model.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = r.svc.admins.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		session, err = r.svc.auth.GetSession(gctx, r.accessToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrRosterLoadFailed, err)
	}
	if session.User == nil || session.User.ID != r.selfID {
		return fmt.Errorf("%w: session does not belong to %s", ErrRosterLoadFailed, r.selfID)
	}

	// staged edits survive a reload as long as their row does
	present := make(map[string]struct{}, len(records))
	for i := range records {
		present[records[i].UserID] = struct{}{}
		if edit, ok := r.pending[records[i].UserID]; ok {
			records[i].IsSuperAdmin = edit.IsSuperAdmin
		}
	}
	for id := range r.pending {
		if _, ok := present[id]; !ok {
			delete(r.pending, id)
		}
	}

	r.records = records
	r.loaded = true

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.UserID)
	}
	if err := r.svc.cooldowns.Sync(ctx, ids); err != nil {
		log.Printf("[WARN] [Roster] Cooldown sync failed: %v", err)
	}
	log.Printf("[DEBUG] [Roster] Loaded %d admins for %s", len(records), r.selfID)
	return nil
}

// find must be called with mu held
func (r *Roster) find(userID string) *model.AdminRecord {
	for i := range r.records {
		if r.records[i].UserID == userID {
			return &r.records[i]
		}
	}
	return nil
}

// superAdminCount must be called with mu held
func (r *Roster) superAdminCount() int {
	n := 0
	for _, rec := range r.records {
		if rec.IsSuperAdmin {
			n++
		}
	}
	return n
}

// slotAvailable must be called with mu held
func (r *Roster) slotAvailable(rec *model.AdminRecord) bool {
	return rec.IsSuperAdmin || r.superAdminCount() < r.svc.opts.MaxSuperAdmins
}

// StageToggle flips a row's super-admin flag locally and records the pending edit
func (r *Roster) StageToggle(userID string) (*model.PendingEdit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return nil, ErrRosterNotLoaded
	}
	if userID == r.selfID {
		return nil, ErrSelfMutation
	}
	rec := r.find(userID)
	if rec == nil {
		return nil, ErrAdminNotFound
	}
	if !rec.IsVerified {
		return nil, ErrNotVerified
	}
	if !r.slotAvailable(rec) {
		return nil, ErrNoSuperAdminSlot
	}

	rec.IsSuperAdmin = !rec.IsSuperAdmin
	edit := model.PendingEdit{UserID: userID, IsSuperAdmin: rec.IsSuperAdmin}
	r.pending[userID] = edit
	log.Printf("[DEBUG] [Roster] %s staged super_admin=%v for %s", r.selfID, edit.IsSuperAdmin, userID)
	return &edit, nil
}

// Pending staged edits ordered by user id
func (r *Roster) Pending() []model.PendingEdit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingList()
}

// pendingList must be called with mu held
func (r *Roster) pendingList() []model.PendingEdit {
	out := make([]model.PendingEdit, 0, len(r.pending))
	for _, edit := range r.pending {
		out = append(out, edit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Save flushes every pending edit in one batch write and returns how many
// rows changed. Edits for admins deleted in the meantime are dropped. Nothing
// is sent when no edit is pending; on failure the edits stay staged.
func (r *Roster) Save(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return 0, nil
	}

	edits := r.pendingList()
	batch := make([]model.AdminRecord, 0, len(edits))
	for _, edit := range edits {
		rec := r.find(edit.UserID)
		if rec == nil {
			continue
		}
		row := *rec
		row.IsSuperAdmin = edit.IsSuperAdmin
		batch = append(batch, row)
	}

	written, err := r.svc.admins.UpsertSuperAdmins(ctx, batch)
	if err != nil {
		metrics.ObserveRosterSave("failed")
		return 0, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	metrics.ObserveRosterSave("ok")
	if skipped := len(batch) - int(written); skipped > 0 {
		log.Printf("[WARN] [Roster] %s: %d staged admins were removed before save", r.selfID, skipped)
	}
	log.Printf("[INFO] [Roster] %s saved %d super-admin changes", r.selfID, written)

	r.pending = make(map[string]model.PendingEdit)
	if err := r.load(ctx); err != nil {
		return int(written), err
	}
	return int(written), nil
}

// Delete removes another admin's identity and admin record, then reloads
func (r *Roster) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID == r.selfID {
		return ErrSelfMutation
	}
	if !r.loaded {
		return ErrRosterNotLoaded
	}

	if err := r.svc.auth.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	delete(r.pending, userID)
	r.svc.cooldowns.Teardown(userID)
	log.Printf("[INFO] [Roster] %s deleted admin %s", r.selfID, userID)

	return r.load(ctx)
}

// View filters the loaded roster by text and status and returns one page
func (r *Roster) View(filter model.RosterFilter) (*model.RosterPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		return nil, ErrRosterNotLoaded
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = r.svc.opts.PageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	status := model.ParseAdminStatus(string(filter.Status))

	matched := make([]*model.AdminRecord, 0, len(r.records))
	for i := range r.records {
		if r.records[i].Matches(filter.Query, status) {
			matched = append(matched, &r.records[i])
		}
	}

	result := &model.RosterPage{
		Rows:         []model.RosterRow{},
		Total:        len(matched),
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   (len(matched) + pageSize - 1) / pageSize,
		PendingCount: len(r.pending),
		SelfID:       r.selfID,
	}

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return result, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	for _, rec := range matched[start:end] {
		result.Rows = append(result.Rows, r.row(rec))
	}
	return result, nil
}

// row must be called with mu held
func (r *Roster) row(rec *model.AdminRecord) model.RosterRow {
	self := rec.UserID == r.selfID
	slot := r.slotAvailable(rec)
	cooldownMs := r.svc.cooldowns.RemainingFor(rec.UserID).Milliseconds()
	_, pending := r.pending[rec.UserID]

	return model.RosterRow{
		AdminRecord:   *rec,
		IsSelf:        self,
		CanToggle:     !self && rec.IsVerified && slot,
		CanDelete:     !self,
		CanResend:     !rec.IsVerified && cooldownMs == 0,
		CooldownMs:    cooldownMs,
		Pending:       pending,
		SlotAvailable: slot,
	}
}
