package main

import (
	"log"
	"os"

	"ambulancewatch/internal/app"
	"ambulancewatch/internal/config"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/service/modelfetch"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

const (
	flagEnvFile      = "env-file"
	flagPort         = "port"
	flagCamera       = "camera"
	flagRequireLogin = "require-login"
	flagModel        = "model"
	flagURL          = "url"

	defaultEnvFile = ".env"
)

func envFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagEnvFile,
		Usage: "file with KEY=VALUE settings loaded before the environment is read",
		Value: defaultEnvFile,
	}
}

// serveFlags are accepted both without a subcommand and after "serve".
func serveFlags() []cli.Flag {
	return []cli.Flag{
		envFileFlag(),
		&cli.IntFlag{Name: flagPort, Usage: "HTTP port, overrides PORT"},
		&cli.StringFlag{Name: flagCamera, Usage: "camera index, file or URL, overrides CAMERA_SOURCE"},
		&cli.BoolFlag{Name: flagRequireLogin, Usage: "require a session for detection and alert endpoints"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "ambulancewatch",
		Usage:  "detect ambulances in uploaded images and live camera streams",
		Flags:  serveFlags(),
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the web server (default)",
				Flags:  serveFlags(),
				Action: serveAction,
			},
			{
				Name:   "fetch-model",
				Usage:  "download the detection model",
				Action: fetchModelAction,
				Flags: []cli.Flag{
					envFileFlag(),
					&cli.StringFlag{Name: flagModel, Usage: "destination path, overrides MODEL_PATH"},
					&cli.StringFlag{Name: flagURL, Usage: "download url, overrides MODEL_URL"},
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// flagContext returns the closest context the flag was given on, so a flag
// passed before or after the subcommand name is honoured.
func flagContext(c *cli.Context, name string) (*cli.Context, bool) {
	for _, ctx := range c.Lineage() {
		if ctx.App != nil && lo.Contains(ctx.LocalFlagNames(), name) {
			return ctx, true
		}
	}
	return nil, false
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	envFile := defaultEnvFile
	if ctx, ok := flagContext(c, flagEnvFile); ok {
		envFile = ctx.String(flagEnvFile)
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load(), nil
}

// serveConfig loads the environment and applies command line overrides.
func serveConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if ctx, ok := flagContext(c, flagPort); ok {
		cfg.Port = ctx.Int(flagPort)
	}
	if ctx, ok := flagContext(c, flagCamera); ok {
		cfg.CameraSource = ctx.String(flagCamera)
	}
	if ctx, ok := flagContext(c, flagRequireLogin); ok {
		cfg.RequireLogin = ctx.Bool(flagRequireLogin)
	}
	return cfg, nil
}

func serveAction(c *cli.Context) error {
	cfg, err := serveConfig(c)
	if err != nil {
		return err
	}
	application, err := app.NewApp(c.Context, cfg)
	if err != nil {
		return err
	}
	return application.Run(c.Context)
}

func fetchModelAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path, url := cfg.ModelPath, cfg.ModelURL
	if c.IsSet(flagModel) {
		path = c.String(flagModel)
	}
	if c.IsSet(flagURL) {
		url = c.String(flagURL)
	}

	log := logger.NewLogger(cfg)
	defer log.Close()
	return modelfetch.FetchModel(c.Context, path, url, log)
}
