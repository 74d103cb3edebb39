package boot

import (
	"fmt"
	"time"

	"elapor/internal/cooldown"
	"elapor/internal/model"
	"elapor/internal/notify"
	"elapor/internal/service"
	"elapor/pkg/config"
	"elapor/pkg/mailer"
	"elapor/pkg/metrics"
	"elapor/pkg/redis"
)

// Services all services plus the shared cooldown manager and notification hub
type Services struct {
	TokenService      service.TokenService
	AuthService       service.AuthService
	InvitationService service.InvitationService
	RosterService     *service.RosterService
	ProfileService    service.ProfileService
	BootstrapService  service.BootstrapService
	Cooldowns         *cooldown.Manager
	Hub               *notify.Hub
	Mailer            *mailer.Mailer
}

// CooldownConfig converts the config section into timer settings
func CooldownConfig(cfg *config.CooldownConfig) cooldown.Config {
	return cooldown.Config{
		Window:      time.Duration(cfg.WindowSeconds) * time.Second,
		Step:        time.Duration(cfg.StepMillis) * time.Millisecond,
		PersistDays: cfg.PersistDays,
	}
}

// InitServices creates the services over the repositories and the key-value store
func InitServices(cfg *config.Config, repos *Repositories, kv redis.Store) (*Services, error) {
	metrics.Init()

	tokenService := service.NewTokenService(
		kv,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpire)*time.Hour,
		time.Duration(cfg.JWT.RefreshTokenExpire)*time.Second,
	)

	mail := mailer.New(mailer.NewProvider(cfg.Mail.Provider, cfg.Mail.APIKey), cfg.Mail.From)

	authService := service.NewAuthService(
		repos.IdentityRepo,
		tokenService,
		service.NewOTPService(kv),
		mail,
		service.AuthOptions{DefaultRedirectURL: cfg.Admin.RecoveryRedirectURL},
	)

	cooldowns := cooldown.NewManager(cooldown.NewStore(kv), CooldownConfig(&cfg.Cooldown))
	if err := metrics.RegisterCooldownGauge(cooldowns.ActiveCount); err != nil {
		return nil, fmt.Errorf("failed to register cooldown gauge: %w", err)
	}

	hub := notify.NewHub(notify.DefaultConfig())
	cooldowns.Subscribe(hub.CooldownListener())
	authService.OnAuthStateChange(func(change model.AuthStateChange) {
		if change.Event == model.AuthEventSignedIn && change.OTPType == model.OTPInvite {
			hub.Publish(notify.TypeRoster, notify.RosterPayload{Action: "verified", UserID: change.UserID})
		}
	})

	invitationService := service.NewInvitationService(
		repos.AdminRepo,
		authService,
		cooldowns,
		mail,
		service.InvitationOptions{RedirectURL: cfg.Admin.InviteRedirectURL},
	)

	rosterService := service.NewRosterService(repos.AdminRepo, authService, cooldowns, service.RosterOptions{
		MaxSuperAdmins: cfg.Admin.MaxSuperAdmins,
		PageSize:       cfg.Admin.PageSize,
	})

	profileService := service.NewProfileService(repos.AdminRepo, repos.ObjectRepo, authService, service.ProfileOptions{
		Bucket:    cfg.Storage.AvatarBucket,
		MaxBytes:  cfg.Storage.MaxAvatarBytes,
		PublicURL: cfg.Server.PublicURL,
	})

	return &Services{
		TokenService:      tokenService,
		AuthService:       authService,
		InvitationService: invitationService,
		RosterService:     rosterService,
		ProfileService:    profileService,
		BootstrapService:  service.NewBootstrapService(repos.AdminRepo, authService),
		Cooldowns:         cooldowns,
		Hub:               hub,
		Mailer:            mail,
	}, nil
}
