package contactAuth

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/contactAuth/internal/audit"
	"github.com/MrEthical07/contactAuth/internal/flows"
	"github.com/MrEthical07/contactAuth/internal/rate"
	"github.com/MrEthical07/contactAuth/jwt"
	"github.com/MrEthical07/contactAuth/password"
	"github.com/MrEthical07/contactAuth/session"
)

// Builder assembles an Engine. A Builder can be used for one Build only.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  PrincipalStore

	notifier  Notifier
	avatars   AvatarStorage
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the session cache and login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the verification email sender. Without one, tokens are
// issued but nothing is sent.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAvatarStorage enables UpdateAvatar.
func (b *Builder) WithAvatarStorage(s AvatarStorage) *Builder {
	b.avatars = s
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the token clock. Tests use it to move past expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.store == nil {
		return nil, errors.New("principal store required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec(jwt.Config{
		SigningMethod:  jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:     cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:      cloneBytes(cfg.JWT.PublicKey),
		KeyID:          cfg.JWT.KeyID,
		Issuer:         cfg.JWT.Issuer,
		Audience:       cfg.JWT.Audience,
		Leeway:         cfg.JWT.Leeway,
		AccessTTL:      cfg.JWT.AccessTTL,
		RefreshTTL:     cfg.JWT.RefreshTTL,
		EmailVerifyTTL: cfg.JWT.EmailVerifyTTL,
		Now:            b.now,
	})
	if err != nil {
		return nil, err
	}

	cache := session.NewCache(b.redis, session.Config{
		Prefix: cfg.Cache.Prefix,
		TTL:    cfg.Cache.TTL,
	})

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	login := flows.LoginDeps{
		Store:            b.store,
		Hasher:           hasher,
		Codec:            codec,
		ThrottleFailOpen: cfg.Security.ThrottleFailOpen,
	}
	if cfg.Security.EnableLoginThrottle {
		login.Throttle = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			Cooldown:         cfg.Security.LoginCooldown,
		})
	}

	deps := flows.Deps{
		SignUp: flows.SignUpDeps{Store: b.store, Hasher: hasher, Codec: codec},
		Login:  login,
		Refresh: flows.RefreshDeps{
			Store: b.store,
			Codec: codec,
			Cache: cache,
		},
		Confirm: flows.ConfirmDeps{
			Store:       b.store,
			Codec:       codec,
			Cache:       cache,
			StrictScope: cfg.Security.StrictConfirmScope,
		},
		Resolve: flows.ResolveDeps{
			Codec:    codec,
			Cache:    cache,
			Store:    b.store,
			CacheTTL: cfg.Cache.TTL,
		},
		RequestEmail: flows.RequestEmailDeps{Store: b.store, Codec: codec},
	}
	if b.avatars != nil {
		deps.Avatar = flows.AvatarDeps{Store: b.store, Cache: cache, Uploader: b.avatars}
	}

	engine := &Engine{
		config:   cfg,
		flows:    flows.New(deps),
		cache:    cache,
		store:    b.store,
		notifier: b.notifier,
		avatars:  b.avatars,
		logger:   logger,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:     cfg.Audit.Enabled,
			BufferSize:  cfg.Audit.BufferSize,
			DropIfFull:  cfg.Audit.DropIfFull,
			Critical:    criticalAuditEvents,
			SinkTimeout: cfg.Audit.SinkTimeout,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true
	return engine, nil
}
