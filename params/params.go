package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	SessionCookieName = "sitec_admin_session"
	SessionMaxAge     = 8 * time.Hour // hard ceiling, no sliding expiration

	AdminPagePrefix = "/admin"
	AdminAPIPrefix  = "/api/admin"

	LoginRateWindow      = 1 * time.Minute // fixed window for login throttling
	LoginRateMaxAttempts = 5               // attempts per window per client ip
	LoginFailDelayMin    = 1000 * time.Millisecond
	LoginFailDelayMax    = 1500 * time.Millisecond

	ContentCacheKeyPrefix = "content:"
	ContentCacheTTL       = 10 * time.Minute

	PasswordSaltLength = 16     // random salt bytes
	PasswordKeyLength  = 64     // derived key bytes
	PasswordIterations = 100000 // pbkdf2 rounds, keeps offline brute force slow

	SessionSecretLength = 43 // base64url chars, ~256 bits of entropy

	HealthCheckServerAddr = ":3001"
)
