package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/jvanderberg/pixelblit"
	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/output"
	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
	"periph.io/x/host/v3"
)

var (
	httpAddr      = "0.0.0.0:9000"
	httpAdminAddr = "127.0.0.1:9002"
	sequencesDir  = "."
	boardConfig   = "config.csv"
	boardID       = 0
	engineName    = "sim"
	gpioPin       = 12
	spiPort       = ""
	previewFPS    = pixelblit.DefaultPreviewFPS
	autoplay      = ""
	verbose       = false
)

func init() {
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address")
	pflag.StringVarP(&httpAdminAddr, "http-admin-addr", "A", httpAdminAddr, "HTTP admin server address")
	pflag.StringVarP(&sequencesDir, "sequences", "s", sequencesDir, "directory of .fseq sequences")
	pflag.StringVar(&boardConfig, "board-config", boardConfig, "CSV file of string lengths and color orders")
	pflag.IntVar(&boardID, "board-id", boardID, "board ID selecting the section of the board config")
	pflag.StringVarP(&engineName, "engine", "e", engineName, "output engine: sim, ws281x or spi")
	pflag.IntVar(&gpioPin, "gpio-pin", gpioPin, "GPIO pin of the ws281x engine")
	pflag.StringVar(&spiPort, "spi-port", spiPort, "SPI port of the spi engine, empty for the first one")
	pflag.IntVar(&previewFPS, "preview-fps", previewFPS, "maximum frame rate sent to preview clients")
	pflag.StringVar(&autoplay, "autoplay", autoplay, "sequence to play on startup")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	board, err := loadBoard(logger)
	if err != nil {
		return err
	}

	engine, err := openEngine(board, logger.With("component", "engine"))
	if err != nil {
		return err
	}
	defer engine.Close()

	server := pixelblit.NewServer(pixelblit.ServerOpts{
		MaxFPS: previewFPS,
		Logger: logger.With("component", "server"),
	})

	controller := pixelblit.NewController(pixelblit.ControllerOpts{
		Library: pixelblit.Library{Dir: sequencesDir},
		Board:   board,
		Engine:  output.NewTee(engine, server.Observe),
		Logger:  logger,
	})
	defer controller.Close()

	if autoplay != "" {
		if err := controller.PlaySequence(autoplay); err != nil {
			return fmt.Errorf("failed to play %q: %w", autoplay, err)
		}
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		r := chi.NewRouter()
		r.Use(httplog.RequestLogger(newRequestLogger("pixelblitd")))
		r.Get("/ws", server.ServeHTTP)

		logger.Info(
			"starting public HTTP server",
			"addr", httpAddr)

		return hserve.ListenAndServe(ctx, httpAddr, r)
	})

	errg.Go(func() error {
		admin := newAdminHandler(controller, server, newRequestLogger("pixelblitd-admin"))

		logger.Info(
			"starting admin HTTP server",
			"addr", httpAdminAddr)

		return hserve.ListenAndServe(ctx, httpAdminAddr, admin)
	})

	return errg.Wait()
}

// newRequestLogger logs one line per HTTP request.
func newRequestLogger(service string) *httplog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return httplog.NewLogger(service, httplog.Options{
		LogLevel: level,
		Concise:  true,
		JSON:     !isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func loadBoard(logger *slog.Logger) (boardconfig.Config, error) {
	board, err := boardconfig.Load(boardConfig, boardID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return board, fmt.Errorf("failed to load board config %q: %w", boardConfig, err)
		}

		logger.Warn(
			"board config not found, using defaults",
			"path", boardConfig,
			"strings", boardconfig.MaxStrings,
			"pixels", boardconfig.DefaultPixelCount)

		return boardconfig.Defaults(boardID), nil
	}

	logger.Info(
		"board config loaded",
		"path", boardConfig,
		"board", board.BoardID,
		"strings", board.StringCount,
		"max_pixels", board.MaxPixelCount)

	return board, nil
}

type engineCloser interface {
	pbled.TransferEngine
	io.Closer
}

func openEngine(board boardconfig.Config, logger *slog.Logger) (engineCloser, error) {
	switch engineName {
	case "sim":
		return output.NewSim(output.SimOpts{
			Realtime: true,
			Logger:   logger,
		}), nil

	case "ws281x":
		return newWS281xEngine(board, gpioPin, logger)

	case "spi":
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize periph host drivers: %w", err)
		}
		return output.OpenNRZ(spiPort, output.NRZOpts{
			String:    0,
			NumPixels: min(max(board.PixelCount(0), 1), pbled.MaxPixels),
			Logger:    logger,
		})

	default:
		return nil, fmt.Errorf("unknown engine %q", engineName)
	}
}
