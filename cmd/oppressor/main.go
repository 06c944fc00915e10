package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"

	"github.com/looplj/oppressor/conf"
	"github.com/looplj/oppressor/internal/build"
	"github.com/looplj/oppressor/internal/copier"
	"github.com/looplj/oppressor/internal/dependencies"
	"github.com/looplj/oppressor/internal/log"
	"github.com/looplj/oppressor/internal/models"
	"github.com/looplj/oppressor/internal/tracing"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			handleConfigCommand()
			return
		case "version", "--version", "-v":
			showVersion()
			return
		case "help", "--help", "-h":
			showHelp()
			return
		case "build-info":
			showBuildInfo()
			return
		case "copy":
			runCopy()
			return
		default:
			showHelp()
			os.Exit(1)
		}
	}

	runCopy()
}

func showBuildInfo() {
	fmt.Println(build.GetBuildInfo())
}

type logger struct{}

func (l *logger) LogEvent(event fxevent.Event) {
	log.Debug(context.Background(), "fx event", log.Any("event", event))
}

// runCopy seeds a commented post, then copies its comments to another post with notifications oppressed.
func runCopy() {
	var (
		m *models.Models
		c *copier.Copier
	)

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &logger{}
		}),
		fx.Provide(conf.Load),
		fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
		dependencies.Module,
		fx.Populate(&m, &c),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	ctx := tracing.StartExecution(context.Background())
	m.Subscribe("post-1", "david", "jeremy")
	m.Subscribe("post-2", "rafael")

	for _, body := range []string{"Ship it", "Looks good", "Needs tests"} {
		if _, err := m.CreateComment(ctx, "post-1", "kasper", body); err != nil {
			log.Error(ctx, "seed comment failed", log.Cause(err))
			os.Exit(1)
		}
	}

	before := len(m.Notifications())

	result, err := c.CopyTo(ctx, "post-1", "post-2")
	if err != nil {
		os.Exit(1)
	}

	fmt.Printf("Copied %d comments, notifications before: %d, after: %d, oppressed method: %s\n",
		result.Copied, before, len(m.Notifications()), result.SuppressedMethod)

	if err := app.Stop(context.Background()); err != nil {
		log.Error(context.Background(), "stop error:", log.Cause(err))
	}
}

func handleConfigCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: oppressor config <preview|validate|get>")
		os.Exit(1)
	}

	switch os.Args[2] {
	case "preview":
		configPreview()
	case "validate":
		configValidate()
	case "get":
		configGet()
	default:
		fmt.Println("Usage: oppressor config <preview|validate|get>")
		os.Exit(1)
	}
}

func configPreview() {
	format := "yml"

	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--format" || os.Args[i] == "-f" {
			if i+1 < len(os.Args) {
				format = os.Args[i+1]
			}
		}
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	output, err := renderConfig(config, format)
	if err != nil {
		fmt.Printf("Failed to preview config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

func renderConfig(config conf.Config, format string) (string, error) {
	switch format {
	case "json":
		b, err := prettyjson.Marshal(config)
		if err != nil {
			return "", err
		}

		return string(b), nil
	case "yml", "yaml":
		b, err := yaml.Marshal(config)
		if err != nil {
			return "", err
		}

		return highlight.Highlight(bytes.NewBuffer(b))
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func configValidate() {
	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	errors := validateConfig(config)

	if len(errors) == 0 {
		fmt.Println("Configuration is valid!")
		return
	}

	fmt.Println("Configuration validation failed:")

	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}

	os.Exit(1)
}

func validateConfig(config conf.Config) []string {
	var errors []string

	if config.Log.Name == "" {
		errors = append(errors, "log.name cannot be empty")
	}

	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, "log.level must be one of debug, info, warn, error")
	}

	switch config.Log.Encoding {
	case "json", "console":
	default:
		errors = append(errors, "log.encoding must be json or console")
	}

	return errors
}

func configGet() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: oppressor config get <key>")
		fmt.Println("")
		fmt.Println("Available keys:")
		fmt.Println("  log.name         Logger name")
		fmt.Println("  log.level        Log level")
		fmt.Println("  log.encoding     Log encoding")
		fmt.Println("  oppressor.seed   Method selection seed")
		os.Exit(1)
	}

	key := os.Args[3]

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	value, ok := configValue(config, key)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}

	fmt.Println(value)
}

func configValue(config conf.Config, key string) (any, bool) {
	switch key {
	case "log.name":
		return config.Log.Name, true
	case "log.level":
		return config.Log.Level, true
	case "log.encoding":
		return config.Log.Encoding, true
	case "log.debug":
		return config.Log.Debug, true
	case "oppressor.seed":
		return config.Oppressor.Seed, true
	default:
		return nil, false
	}
}

func showHelp() {
	fmt.Println("Oppressor")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  oppressor                    Copy comments with notifications oppressed (default)")
	fmt.Println("  oppressor copy               Same as above")
	fmt.Println("  oppressor config preview     Preview configuration")
	fmt.Println("  oppressor config validate    Validate configuration")
	fmt.Println("  oppressor config get <key>   Get a specific config value")
	fmt.Println("  oppressor version            Show version")
	fmt.Println("  oppressor build-info         Show build information")
	fmt.Println("  oppressor help               Show this help message")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -f, --format FORMAT          Output format for config preview (yml, json)")
}

func showVersion() {
	fmt.Println(build.Version)
}
