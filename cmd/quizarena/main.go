package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quizarena/quizarena/internal/accounts"
	"github.com/quizarena/quizarena/internal/client"
	"github.com/quizarena/quizarena/internal/config"
	"github.com/quizarena/quizarena/internal/session"
	"github.com/quizarena/quizarena/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "quizarena.yaml", "path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := dialTransport(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("transport failed")
	}

	events := &session.Events{
		RosterChanged: func() {
			log.Debug().Msg("roster changed")
		},
		IdentityResolved: func(name string, r accounts.Role) {
			log.Info().Str("name", name).Stringer("role", r).Msg("joined game")
		},
		RoleSwitched: func(from, to accounts.Role) {
			log.Info().Stringer("from", from).Stringer("to", to).Msg("role switched")
		},
		StageChanged: func(stage session.Stage) {
			log.Info().Stringer("stage", stage).Msg("stage changed")
		},
		TimerChanged: func(index int, command string, arg int, person string) {
			log.Debug().Int("timer", index).Str("command", command).Int("arg", arg).
				Str("person", person).Msg("timer changed")
		},
		Chat: func(sender, text string) {
			fmt.Printf("%s: %s\n", sender, text)
		},
		Display: func(kind string, args []string) {
			log.Debug().Str("kind", kind).Strs("args", args).Msg("display")
		},
		Notify: func(text string) {
			fmt.Fprintln(os.Stderr, text)
		},
		Fatal: func(err error) {
			log.Error().Err(err).Msg("session torn down")
		},
	}

	cl := client.New(client.Config{
		Name:           cfg.Player.Name,
		IsMale:         cfg.Player.Sex != "f",
		ReconnectDelay: time.Duration(cfg.ReconnectDelaySec) * time.Second,
	}, tr, events, nil)
	defer cl.Dispose()

	if err := cl.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("session ended with error")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(lvl)
}

func dialTransport(ctx context.Context, cfg *config.Config) (transport.Transport, error) {
	switch cfg.Server.Transport {
	case "nats":
		return transport.DialNATS(transport.DefaultNATSConfig(cfg.Server.URL, cfg.Server.GameID))
	default:
		return transport.DialWebSocket(ctx, transport.DefaultWebSocketConfig(cfg.Server.URL))
	}
}
