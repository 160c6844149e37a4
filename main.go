package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/songquanpeng/prompt-studio/common"
	"github.com/songquanpeng/prompt-studio/common/awsconf"
	"github.com/songquanpeng/prompt-studio/common/client"
	"github.com/songquanpeng/prompt-studio/common/cognito"
	"github.com/songquanpeng/prompt-studio/common/config"
	"github.com/songquanpeng/prompt-studio/common/graceful"
	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/common/secret"
	"github.com/songquanpeng/prompt-studio/common/storage"
	"github.com/songquanpeng/prompt-studio/controller"
	"github.com/songquanpeng/prompt-studio/middleware"
	"github.com/songquanpeng/prompt-studio/model"
	"github.com/songquanpeng/prompt-studio/relay"
	"github.com/songquanpeng/prompt-studio/relay/catalog"
	rcontroller "github.com/songquanpeng/prompt-studio/relay/controller"
	"github.com/songquanpeng/prompt-studio/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	common.Init()
	logger.SetupLogger()
	logger.Logger.Info("Prompt Studio started", zap.String("version", common.Version))

	switch {
	case config.GinMode != "":
		gin.SetMode(config.GinMode)
	case !config.DebugEnabled:
		gin.SetMode(gin.ReleaseMode)
	}

	awsCfg, err := awsconf.Load(ctx)
	if err != nil {
		logger.Logger.Fatal("failed to load aws config", zap.Error(err))
	}
	secrets := secret.NewCachedStore(secret.NewSecretsManagerStore(awsCfg), config.SecretCacheTTL)
	client.Init()

	cat := catalog.Default()
	logger.Logger.Info("model catalog loaded",
		zap.Int("models", len(cat.Entries())),
		zap.Strings("available", cat.ListModelIDs()))

	h := &controller.Handler{
		Env: rcontroller.Env{
			Catalog: cat,
			Deps: relay.Deps{
				Bedrock:    bedrockruntime.NewFromConfig(awsCfg),
				Secrets:    secrets,
				HTTPClient: client.HTTPClient,
			},
			Concurrency: config.EvalConcurrency,
		},
		Sessions: model.NewSessionStore(config.SessionIdleTTL, config.MaxEvalsInMemory, config.DefaultRefAnswerField),
		Datasets: storage.NewLoader(s3.NewFromConfig(awsCfg)),
	}

	if config.CognitoSecretName != "" {
		cognitoCfg, err := cognito.LoadConfig(ctx, secrets, config.CognitoSecretName)
		if err != nil {
			logger.Logger.Fatal("failed to load cognito config",
				zap.String("secret", config.CognitoSecretName), zap.Error(err))
		}
		h.Auth = cognito.NewAuthenticator(cognitoCfg, awsCfg)
		logger.Logger.Info("user authentication enabled", zap.String("pool_id", cognitoCfg.PoolID))
	} else {
		logger.Logger.Warn("COGNITO_SECRET_NAME is not set, authentication is DISABLED and the app is " +
			"PUBLICLY ACCESSIBLE to anyone who can reach it")
	}

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		middleware.PanicRecover(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
	)
	server.Use(middleware.RequestId())

	sessionStore := middleware.NewCookieStore(config.SessionSecret, config.CookieMaxAgeHours*3600, config.EnableCookieSecure)
	server.Use(sessions.Sessions("session", sessionStore))

	router.SetRouter(server, h)

	port := config.ServerPort
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	logger.Logger.Info("shutdown signal received, draining evaluations",
		zap.Int64("in_flight_evaluations", graceful.InFlight()))

	graceful.SetDraining()
	drainCtx, cancel := context.WithTimeout(context.Background(), time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := graceful.Drain(drainCtx); err != nil {
		logger.Logger.Warn("evaluations still running at shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Logger.Error("server shutdown", zap.Error(err))
	}
	logger.Logger.Info("server exited")
}
