package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kwkoo/configparser"
	"github.com/kwkoo/go-birdr/internal"
	"github.com/kwkoo/go-birdr/internal/api"
	"github.com/kwkoo/go-birdr/internal/logger"
	"github.com/kwkoo/go-birdr/internal/messaging"
	"github.com/kwkoo/go-birdr/internal/shutdown"
	"github.com/kwkoo/go-birdr/internal/transport"
	"github.com/rs/zerolog/log"
)

const (
	authRealm       = "Birdr Session"
	shutdownTimeout = 5 * time.Second
)

func main() {
	config := struct {
		BaseURL        string `default:"https://birdr.pro" usage:"Base URL of the quiz site"`
		Player         string `usage:"Name of the player to create if none is stored"`
		Language       string `default:"en" usage:"Preferred language"`
		AccessToken    string `usage:"Access token used to link a new player to a user account"`
		Game           string `usage:"Token of the game to join on startup"`
		Country        string `default:"NL" usage:"Country code for new games"`
		Level          string `default:"beginner" usage:"Level for new games"`
		Length         string `default:"10" usage:"Number of questions in new games"`
		Media          string `default:"images" usage:"Media type for new games"`
		IncludeRare    bool   `usage:"Include rare species in new games"`
		IncludeEscapes bool   `usage:"Include escaped species in new games"`
		StateDir       string `default:".birdr" usage:"Directory for locally stored preferences"`
		RedisHost      string `usage:"Redis host and port - preferences are stored locally if not specified"`
		RedisPassword  string `usage:"Redis password"`
		NatsURL        string `usage:"NATS server URL to mirror session state to"`
		NatsSubject    string `default:"birdr.session" usage:"NATS subject prefix for mirrored session state"`
		Port           int    `default:"-1" usage:"HTTP listener port for session inspection - disabled if negative"`
		AdminUser      string `default:"admin" usage:"Admin username"`
		AdminPassword  string `usage:"Admin password"`
		LogLevel       string `default:"info" usage:"Log level"`
		LogJSON        bool   `usage:"Log in JSON instead of console format"`
		LogFile        string `usage:"Also write logs to this file"`
	}{}
	if err := configparser.Parse(&config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logConfig := logger.DefaultLogConfig()
	logConfig.Level = config.LogLevel
	logConfig.JSON = config.LogJSON
	logConfig.FilePath = config.LogFile
	logger.InitLogger(logConfig)

	shutdown.InitShutdownHandler()
	ctx := shutdown.Context()

	prefs, err := openPreferences(ctx, config.RedisHost, config.RedisPassword, config.StateDir)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open preferences")
	}
	defer prefs.Close()

	var mirror internal.Mirror
	if config.NatsURL != "" {
		natsMirror, err := internal.ConnectNATSMirror(config.NatsURL, config.NatsSubject)
		if err != nil {
			log.Warn().Err(err).Msg("running without NATS, session state will not be mirrored")
		} else {
			defer natsMirror.Close()
			mirror = natsMirror
		}
	}

	client, err := api.NewClient(config.BaseURL, &http.Client{Timeout: time.Minute})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	hub := messaging.InitMessageHub()
	defer hub.Close()

	coordinator := internal.NewCoordinator(ctx, config.BaseURL, transport.NewWebSocketDialer(nil), hub, mirror)
	defer coordinator.Leave()

	console := internal.NewConsole(coordinator, client, prefs, hub, os.Stdout, internal.ConsoleConfig{
		Language:    config.Language,
		AccessToken: config.AccessToken,
		GameOptions: api.CreateGameRequest{
			Country:        config.Country,
			Language:       config.Language,
			Level:          config.Level,
			Length:         config.Length,
			Media:          config.Media,
			IncludeRare:    config.IncludeRare,
			IncludeEscapes: config.IncludeEscapes,
		},
	})
	if err := console.Resume(ctx, config.Player, config.Game); err != nil {
		log.Error().Err(err).Msg("could not resume session")
	}

	if config.Port >= 0 {
		auth := api.InitAuth(config.AdminUser, config.AdminPassword, authRealm)
		go serveInspection(shutdown.Context(), config.Port, auth.BasicAuth(api.InitRestApi(coordinator)))
	}

	go readInput(hub)

	consoleCtx := shutdown.Context()
	go func() {
		defer shutdown.NotifyShutdownComplete()
		console.Run(consoleCtx)
		shutdown.Shutdown()
	}()

	shutdown.NotifyShutdownComplete()
	shutdown.WaitForShutdown(shutdownTimeout)
}

func openPreferences(ctx context.Context, redisHost, redisPassword, stateDir string) (internal.Preferences, error) {
	if redisHost == "" {
		return internal.OpenLocalPreferences(stateDir)
	}
	redis := internal.InitRedis(redisHost, redisPassword)
	if err := redis.WaitForRedis(ctx); err != nil {
		return nil, err
	}
	return redis, nil
}

func serveInspection(ctx context.Context, port int, handler http.Handler) {
	defer shutdown.NotifyShutdownComplete()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", port).Msg("session inspection listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("session inspection server failed")
	}
}

// readInput forwards stdin lines to the console. End of input quits.
func readInput(hub *messaging.MessageHub) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		hub.Send(messaging.ConsoleInputTopic, scanner.Text())
	}
	hub.Send(messaging.ConsoleInputTopic, "quit")
}
