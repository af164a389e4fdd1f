package main

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/edupegoretti/sitec/internal/audit"
	"github.com/edupegoretti/sitec/internal/auth"
	"github.com/edupegoretti/sitec/internal/common"
	"github.com/edupegoretti/sitec/internal/config"
	"github.com/edupegoretti/sitec/internal/content"
	adminhandlers "github.com/edupegoretti/sitec/internal/handlers/admin"
	"github.com/edupegoretti/sitec/internal/handlers/web"
	"github.com/edupegoretti/sitec/internal/leads"
	"github.com/edupegoretti/sitec/internal/mail"
	"github.com/edupegoretti/sitec/internal/middlewares"
	"github.com/edupegoretti/sitec/internal/ratelimit"
	"github.com/edupegoretti/sitec/internal/render"
	"github.com/edupegoretti/sitec/internal/store"
	"github.com/edupegoretti/sitec/model"
	"github.com/edupegoretti/sitec/params"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	allowInsecureSessionFlag = &cli.BoolFlag{
		Name:  "allow-insecure-session",
		Usage: "Serve even without a configured session secret (development only)",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "sitec - marketing site and admin backend"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
		allowInsecureSessionFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
		{
			Name:      "hash-password",
			Usage:     "Derive the admin credential record for the config file",
			ArgsUsage: "[password]",
			Action:    hashPassword,
		},
		{
			Name:   "gen-secret",
			Usage:  "Generate a random session signing secret",
			Action: genSecret,
		},
	}
	app.Action = run
}

// hashPassword prints the credential record to paste into config.yaml. The
// password comes from the first argument, or from stdin when omitted so it
// stays out of shell history.
func hashPassword(ctx *cli.Context) error {
	password := ctx.Args().First()
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return err
		}
		password = strings.TrimRight(line, "\r\n")
	}
	record, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(record)
	return nil
}

func genSecret(ctx *cli.Context) error {
	secret, err := common.GenerateSecret(params.SessionSecretLength)
	if err != nil {
		return err
	}
	fmt.Println(secret)
	return nil
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitHtmlEngine(templateDir string) *html.Engine {
	if templateDir != "" {
		return html.NewFileSystem(http.Dir(templateDir), ".html")
	}
	viewFS, _ := fs.Sub(templateFS, "templates")
	return html.NewFileSystem(http.FS(viewFS), ".html")
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	if mailCfg.Backend == "" {
		return nil
	}
	if mailCfg.Backend != "smtp" {
		slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
		os.Exit(1)
	}
	sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
		Host:     mailCfg.SMTP.Host,
		Port:     mailCfg.SMTP.Port,
		Username: mailCfg.SMTP.Username,
		Password: mailCfg.SMTP.Password,
		TLS:      mailCfg.SMTP.TLS,
		CertFile: mailCfg.SMTP.CertFile,
		KeyFile:  mailCfg.SMTP.KeyFile,
		CAFile:   mailCfg.SMTP.CAFile,
	}, mailCfg.From)
	if err != nil {
		slog.Error("Could not initialize SMTP mail sender", "error", err)
		os.Exit(1)
	}
	return sender
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func setupRoutes(
	router fiber.Router,
	cfg *config.Config,
	sessions *auth.SessionManager,
	limiter *ratelimit.Limiter,
	contentService *content.Service,
	leadService *leads.Service,
) {
	cookieConfig := auth.CookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.SessionMaxAge,
		Secure: cfg.Session.CookieSecure,
	}

	// handlers
	var (
		pagesHandler   = web.NewPagesHandler(cfg.SiteName, sessions, cookieConfig.Name)
		contentHandler = web.NewContentHandler(contentService)
		leadHandler    = web.NewLeadHandler(leadService)
		webhookHandler = web.NewWebhookHandler(cfg.CMS.WebhookSecret, contentService)
		authHandler    = adminhandlers.NewAuthHandler(adminhandlers.AuthHandlerConfig{
			Credential:   cfg.Admin.Credential,
			Cookie:       cookieConfig,
			FailDelayMin: params.LoginFailDelayMin,
			FailDelayMax: params.LoginFailDelayMax,
		}, sessions, limiter)
		cacheHandler = adminhandlers.NewCacheHandler(contentService)
	)

	// public routes
	router.Static("/static", cfg.StaticDir)
	router.Get("/", pagesHandler.GetHome)
	router.Get("/api/content/pages/:slug", contentHandler.GetPage)
	router.Get("/api/content/posts", contentHandler.ListPosts)
	router.Get("/api/content/posts/:slug", contentHandler.GetPost)
	router.Post("/api/leads", leadHandler.PostLead)
	router.Post("/api/revalidate", webhookHandler.PostRevalidate)

	// the gate only touches admin prefixes and exempts login and logout
	router.Use(middlewares.AdminGate(cookieConfig.Name))
	router.Get("/admin/login", pagesHandler.GetLogin)
	router.Post("/api/admin/login", authHandler.PostLogin)
	router.Post("/api/admin/logout", authHandler.PostLogout)

	requireSession := middlewares.RequireSession(sessions, cookieConfig.Name)
	router.Get("/admin", requireSession, pagesHandler.GetDashboard)
	router.Get("/api/admin/session", requireSession, authHandler.GetSession)
	router.Post("/api/admin/revalidate", requireSession, cacheHandler.PostRevalidate)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.SessionMaxAge)
	if sessions.Insecure() && !ctx.Bool(allowInsecureSessionFlag.Name) {
		return fmt.Errorf("no session secret configured; generate one with gen-secret, or pass --%s for development", allowInsecureSessionFlag.Name)
	}

	globalVars := fiber.Map{
		"siteName": cfg.SiteName,
		"baseURL":  cfg.BaseURL,
	}
	if err := render.Initialize(globalVars, cfg.TemplateDir); err != nil {
		slog.Error("Could not initialize templates", "error", err)
		return err
	}
	htmlEngine := mustInitHtmlEngine(cfg.TemplateDir)

	// redis is optional; single-instance deployments cache in process memory
	var (
		cacheStorage store.Storage
		rdb          goredis.UniversalClient
	)
	if cfg.Redis.URL != "" {
		redisStorage := mustInitRedisStorage(cfg.Redis)
		rdb = redisStorage.Conn()
		cacheStorage = store.NewRedisStorage(rdb)
	} else {
		cacheStorage = store.NewMemoryStorage()
	}

	// mysql is optional too; without it leads stay in memory and audit events
	// only reach the log
	var db *gorm.DB
	var (
		leadRepo  leads.LeadRepository
		auditRepo audit.AuditEventRepository
	)
	if cfg.MySQL.Dsn != "" {
		db = mustInitDatabase(cfg.MySQL)
		leadRepo = leads.NewLeadRepository(db)
		auditRepo = audit.NewAuditEventRepository(db)
	} else {
		slog.Warn("No database configured, leads are not persisted")
		leadRepo = leads.NewMemoryLeadRepository()
		auditRepo = audit.NewLogOnlyRepository()
	}
	audit.Initialize(auditRepo)

	mailSender := mustInitMailSender(cfg.Mail)

	contentService := content.NewService(
		content.NewClient(cfg.CMS.BaseURL, cfg.CMS.APIToken),
		store.StorageWithPrefix(cacheStorage, params.ContentCacheKeyPrefix),
		cfg.CMS.CacheTTL,
	)
	leadService := leads.NewService(leads.Config{
		CRMWebhookURL: cfg.CRM.WebhookURL,
		CRMAuthToken:  cfg.CRM.AuthToken,
		NotifyEmail:   cfg.CRM.NotifyEmail,
	}, leadRepo, mailSender)
	limiter := ratelimit.New(params.LoginRateWindow, params.LoginRateMaxAttempts)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		Views:         htmlEngine,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupRoutes(router, cfg, sessions, limiter, contentService, leadService)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, rdb, db)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
