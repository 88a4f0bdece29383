package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mafundi/mafundi-cli/internal/api"
	"github.com/mafundi/mafundi-cli/internal/events"
	"github.com/mafundi/mafundi-cli/internal/registry"
	"github.com/mafundi/mafundi-cli/internal/service_registry"
	"github.com/mafundi/mafundi-cli/internal/services"
	"github.com/mafundi/mafundi-cli/internal/session"
	"github.com/mafundi/mafundi-cli/internal/utils"
	"github.com/mafundi/mafundi-cli/pkg/encryption"
	"github.com/mafundi/mafundi-cli/pkg/file"
	"github.com/mafundi/mafundi-cli/pkg/location"
	"github.com/mafundi/mafundi-cli/pkg/mqtt"
	"github.com/mafundi/mafundi-cli/pkg/terminal"
)

const usage = `Usage: mafundi [-config path] [-env path] <command> [flags]

Commands:
  login              Log in (-email, -password)
  signup             Create an account and log in (-name, -email, -password, -confirm, -role)
  logout             End the current session
  jobs               Jobs near you (-radius km, -manual label, -watch)
  job <id>           Show one job
  post-job           Post a job (-title, -description, -location, -budget)
  apply <job-id>     Apply for a job (-manual label)
  my-applications    Your applications (fundi)
  job-applications   Applications for your jobs (foreman)
`

var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("mafundi", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "configs/config.yaml", "path to the configuration file")
	envPath := global.String("env", ".env", "path to an optional .env file")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	fileClient := file.NewFileService()
	config, err := utils.LoadConfig(*configPath, *envPath, fileClient)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := utils.NewLogger(stderr, config.Log.Level, config.Log.Pretty)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %v\n", err)
		return 1
	}

	a, err := newApp(config, fileClient, logger, stdin, stdout, stderr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize")
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.dispatch(ctx, global.Arg(0), global.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}
	return 0
}

// app wires the configured components together for one invocation.
type app struct {
	config     *utils.Config
	fileClient file.FileOperations
	logger     zerolog.Logger
	in         *terminal.LineReader // shared by every prompt
	out        io.Writer
	errOut     io.Writer

	client *api.Client
	auth   *services.AuthService

	platform location.Platform
}

func newApp(config *utils.Config, fileClient file.FileOperations, logger zerolog.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	store, err := newSessionStore(config, fileClient)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(config.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: config.API.Timeout}),
		api.WithRateLimit(config.API.RatePerSec, config.API.Burst),
		api.WithUserAgent(config.UserAgent()),
		api.WithLogger(logger),
	)
	manager := session.NewManager(store, logger)

	return &app{
		config:     config,
		fileClient: fileClient,
		logger:     logger,
		in:         terminal.NewLineReader(stdin),
		out:        stdout,
		errOut:     stderr,
		client:     client,
		auth:       services.NewAuthService(client, manager, logger),
	}, nil
}

func newSessionStore(config *utils.Config, fileClient file.FileOperations) (session.Store, error) {
	if config.Session.Store == utils.SessionStoreKeyring {
		return session.NewKeyringStore(config.Session.Account), nil
	}

	secret, err := session.LoadOrCreateSecret(fileClient, config.Session.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session key: %w", err)
	}
	em := encryption.NewEncryptionManager(fileClient)
	if err := em.Initialize(secret); err != nil {
		return nil, fmt.Errorf("failed to initialize session encryption: %w", err)
	}
	return session.NewFileStore(config.Session.File, config.Session.LockFile, fileClient, em), nil
}

// locationPlatform builds the configured platform on first use.
func (a *app) locationPlatform() (location.Platform, error) {
	if a.platform != nil {
		return a.platform, nil
	}

	cfg := a.config.Location

	var permissioner location.Permissioner
	switch cfg.Permission {
	case utils.PermissionGranted:
		permissioner = location.StaticPermission(location.PermissionGranted)
	case utils.PermissionDenied:
		permissioner = location.StaticPermission(location.PermissionDenied)
	default:
		permissioner = location.NewPromptPermission(a.in, a.errOut)
	}

	var provider location.Provider
	switch cfg.Provider {
	case utils.ProviderGPS:
		provider = location.NewDeviceSensorProvider(cfg.GPSDevicePort, cfg.GPSDeviceBaudRate)
	case utils.ProviderGoogle:
		google, err := location.NewGoogleGeolocationProvider(cfg.MapsAPIKey, cfg.ModemIndex, a.logger)
		if err != nil {
			a.logger.Error().Err(err).Msg("Failed to create Google Geolocation provider")
			return nil, err
		}
		provider = google
	default:
		provider = location.NewStaticProvider(location.GeoPoint{Latitude: cfg.Static.Latitude, Longitude: cfg.Static.Longitude})
	}

	a.platform = location.NewHostPlatform(permissioner, provider)
	return a.platform, nil
}

// newRegistry returns a registry holding the event broker connection, when
// enabled, and the publisher feeding it.
func (a *app) newRegistry() (*service_registry.ServiceRegistry, events.Publisher, error) {
	cfg := a.config.Events
	reg := service_registry.NewServiceRegistry(a.logger)

	var publisher events.Publisher = events.NopPublisher{}
	var broker *mqtt.MqttService
	if cfg.Enabled {
		broker = mqtt.NewMqttService(a.fileClient)
		publisher = events.NewMQTTPublisher(broker, cfg.Topic, cfg.QOS, a.logger)
	}

	err := reg.RegisterServices([]service_registry.Definition{
		{
			Name:    "events",
			Enabled: cfg.Enabled,
			Constructor: func() (registry.Service, error) {
				clientID := cfg.ClientID + "-" + uuid.New().String()
				return events.NewConnection(broker, cfg.Broker, clientID, cfg.CACertificate, cfg.ConnectTimeout, a.logger), nil
			},
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, publisher, nil
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "signup":
		return a.cmdSignup(ctx, args)
	case "logout":
		return a.cmdLogout()
	case "jobs":
		return a.cmdJobs(ctx, args)
	case "job":
		return a.cmdJob(ctx, args)
	case "post-job":
		return a.cmdPostJob(ctx, args)
	case "apply":
		return a.cmdApply(ctx, args)
	case "my-applications":
		return a.cmdMyApplications(ctx)
	case "job-applications":
		return a.cmdJobApplications(ctx)
	case "help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}
