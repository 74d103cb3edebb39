package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"elapor/internal/cooldown"
	"elapor/internal/model"
	"elapor/internal/repository"
	"elapor/pkg/mailer"
	"elapor/pkg/redis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

// fakeAdminRepo in-memory AdminRepository
type fakeAdminRepo struct {
	mu      sync.Mutex
	records map[string]model.AdminRecord

	creates     int
	upsertCalls [][]model.AdminRecord

	createErr     error
	getByEmailErr error
	listErr       error
	upsertErr     error
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{records: make(map[string]model.AdminRecord)}
}

func (r *fakeAdminRepo) put(rec model.AdminRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	r.records[rec.UserID] = rec
}

func (r *fakeAdminRepo) get(userID string) (model.AdminRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	return rec, ok
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *model.AdminRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.creates++
	admin.Email = strings.ToLower(admin.Email)
	admin.CreatedAt = time.Now()
	r.records[admin.UserID] = *admin
	return nil
}

func (r *fakeAdminRepo) GetByUserID(_ context.Context, userID string) (*model.AdminRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*model.AdminRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getByEmailErr != nil {
		return nil, r.getByEmailErr
	}
	for _, rec := range r.records {
		if rec.Email == strings.ToLower(email) {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *fakeAdminRepo) List(_ context.Context) ([]model.AdminRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.AdminRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeAdminRepo) Search(ctx context.Context, search repository.AdminSearch) ([]model.AdminRecord, int64, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	var out []model.AdminRecord
	for i := range all {
		if all[i].Matches(search.Query, search.Status) {
			out = append(out, all[i])
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAdminRepo) UpsertSuperAdmins(_ context.Context, admins []model.AdminRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(admins) == 0 {
		return 0, nil
	}
	r.upsertCalls = append(r.upsertCalls, append([]model.AdminRecord(nil), admins...))
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	var written int64
	for _, a := range admins {
		rec, ok := r.records[a.UserID]
		if !ok {
			continue
		}
		rec.IsSuperAdmin = a.IsSuperAdmin
		r.records[a.UserID] = rec
		written++
	}
	return written, nil
}

func (r *fakeAdminRepo) MarkVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if ok {
		rec.IsVerified = true
		r.records[userID] = rec
	}
	return nil
}

func (r *fakeAdminRepo) UpdateProfile(_ context.Context, userID string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil
	}
	if v, ok := fields["display_name"].(string); ok {
		rec.DisplayName = v
	}
	if v, ok := fields["profile_img"].(string); ok {
		rec.ProfileImg = v
	}
	r.records[userID] = rec
	return nil
}

func (r *fakeAdminRepo) CountSuperAdmins(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.IsSuperAdmin {
			n++
		}
	}
	return n, nil
}

func (r *fakeAdminRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

// fakeIdentityRepo in-memory IdentityRepository; Delete cascades into admins
type fakeIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]model.Identity
	admins     *fakeAdminRepo

	creates   int
	createErr error
	deleteErr error
}

func newFakeIdentityRepo(admins *fakeAdminRepo) *fakeIdentityRepo {
	return &fakeIdentityRepo{identities: make(map[string]model.Identity), admins: admins}
}

func (r *fakeIdentityRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.identities)
}

func (r *fakeIdentityRepo) Create(_ context.Context, identity *model.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.creates++
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	identity.CreatedAt = time.Now()
	r.identities[identity.ID] = *identity
	return nil
}

func (r *fakeIdentityRepo) GetByID(_ context.Context, id string) (*model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (r *fakeIdentityRepo) GetByEmail(_ context.Context, email string) (*model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.identities {
		if identity.Email == strings.ToLower(strings.TrimSpace(email)) {
			identity := identity
			return &identity, nil
		}
	}
	return nil, nil
}

func (r *fakeIdentityRepo) update(id string, fn func(*model.Identity)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	fn(&identity)
	r.identities[id] = identity
	return nil
}

func (r *fakeIdentityRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(i *model.Identity) { i.Password = hash })
}

func (r *fakeIdentityRepo) UpdateMetadata(_ context.Context, id string, metadata map[string]interface{}) error {
	return r.update(id, func(i *model.Identity) { i.Metadata = metadata })
}

func (r *fakeIdentityRepo) ConfirmEmail(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(i *model.Identity) { i.EmailConfirmedAt = &at })
}

func (r *fakeIdentityRepo) UpdateLastSignIn(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(i *model.Identity) { i.LastSignInAt = &at })
}

func (r *fakeIdentityRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	if r.deleteErr != nil {
		r.mu.Unlock()
		return r.deleteErr
	}
	_, ok := r.identities[id]
	delete(r.identities, id)
	r.mu.Unlock()
	if !ok {
		return repository.ErrRecordNotFound
	}

	r.admins.mu.Lock()
	delete(r.admins.records, id)
	r.admins.mu.Unlock()
	return nil
}

// fakeObjectRepo in-memory ObjectRepository
type fakeObjectRepo struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]model.StoredObject
}

func newFakeObjectRepo() *fakeObjectRepo {
	return &fakeObjectRepo{objects: make(map[string][]byte), meta: make(map[string]model.StoredObject)}
}

func (r *fakeObjectRepo) Upload(_ context.Context, bucket, path string, body io.Reader, opts model.UploadOptions) (*model.StoredObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := bucket + "/" + path
	if _, ok := r.objects[key]; ok && !opts.Upsert {
		return nil, repository.ErrObjectExists
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	obj := model.StoredObject{
		Bucket: bucket, Path: path, Size: int64(len(data)),
		ContentType: opts.ContentType, CacheControl: opts.CacheControl, UploadedAt: time.Now(),
	}
	r.objects[key] = data
	r.meta[key] = obj
	return &obj, nil
}

func (r *fakeObjectRepo) Remove(_ context.Context, bucket string, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		delete(r.objects, bucket+"/"+p)
		delete(r.meta, bucket+"/"+p)
	}
	return nil
}

func (r *fakeObjectRepo) Open(_ context.Context, bucket, path string) (io.ReadCloser, *model.StoredObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.objects[bucket+"/"+path]
	if !ok {
		return nil, nil, repository.ErrObjectNotFound
	}
	meta := r.meta[bucket+"/"+path]
	return io.NopCloser(bytes.NewReader(data)), &meta, nil
}

// captureProvider records outgoing mail
type captureProvider struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (c *captureProvider) Name() string { return "capture" }

func (c *captureProvider) Send(_ context.Context, msg mailer.Message) (mailer.SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return mailer.SendResult{}, c.err
	}
	c.sent = append(c.sent, msg)
	return mailer.SendResult{ProviderMessageID: "captured"}, nil
}

var codePattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)

// lastCode the code in the newest mail sent to email
func (c *captureProvider) lastCode(t *testing.T, email string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if len(c.sent[i].To) == 1 && c.sent[i].To[0] == email {
			m := codePattern.FindStringSubmatch(c.sent[i].HTML)
			require.Len(t, m, 2, "no code in mail to %s", email)
			return m[1]
		}
	}
	t.Fatalf("no mail sent to %s", email)
	return ""
}

func (c *captureProvider) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// testEnv services wired over in-memory fakes
type testEnv struct {
	admins     *fakeAdminRepo
	identities *fakeIdentityRepo
	objects    *fakeObjectRepo
	kv         *redis.MemoryStore
	cdStore    cooldown.Store
	mail       *captureProvider
	cooldowns  *cooldown.Manager
	auth       AuthService
	invites    InvitationService
	rosters    *RosterService
	profiles   ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		admins:  newFakeAdminRepo(),
		objects: newFakeObjectRepo(),
		kv:      redis.NewMemoryStore(),
		mail:    &captureProvider{},
	}
	env.identities = newFakeIdentityRepo(env.admins)
	env.cdStore = cooldown.NewStore(env.kv)
	env.cooldowns = cooldown.NewManager(env.cdStore, cooldown.DefaultConfig())
	t.Cleanup(env.cooldowns.Close)

	m := mailer.New(env.mail, "noreply@elapor.test")
	tokens := NewTokenService(env.kv, "test-secret", time.Hour, 24*time.Hour)
	env.auth = NewAuthService(env.identities, tokens, NewOTPService(env.kv), m, AuthOptions{
		DefaultRedirectURL: "https://admin.elapor.test/auth/callback",
	})
	env.invites = NewInvitationService(env.admins, env.auth, env.cooldowns, m, InvitationOptions{
		RedirectURL: "https://admin.elapor.test/accept-invite",
	})
	env.rosters = NewRosterService(env.admins, env.auth, env.cooldowns, RosterOptions{MaxSuperAdmins: 3, PageSize: 10})
	env.profiles = NewProfileService(env.admins, env.objects, env.auth, ProfileOptions{
		Bucket: "avatars", MaxBytes: 1024, PublicURL: "https://api.elapor.test",
	})
	return env
}

// addAdmin creates a confirmed identity with password and its admin record
func (e *testEnv) addAdmin(t *testing.T, email string, verified, superAdmin bool) model.AdminRecord {
	t.Helper()
	identity, err := e.auth.CreateUser(context.Background(), &model.CreateIdentityRequest{
		Email:        email,
		Password:     "Password#123",
		EmailConfirm: true,
	})
	require.NoError(t, err)
	rec := model.AdminRecord{
		UserID:       identity.ID,
		Email:        identity.Email,
		DisplayName:  strings.Split(email, "@")[0],
		IsVerified:   verified,
		IsSuperAdmin: superAdmin,
	}
	e.admins.put(rec)
	return rec
}

// signIn returns an access token for email
func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	session, err := e.auth.SignInWithPassword(context.Background(), email, "Password#123")
	require.NoError(t, err)
	return session.AccessToken
}
