// Package cli implements the dedupe command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/logger"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/app"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/config"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services holds what the commands run against.
type Services struct {
	Matcher *service.Matcher
	Store   ports.TemplateStore
	Logger  ports.Logger
}

var (
	services   *Services
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find likely duplicate contacts",
	Long: `dedupe scores contact records by name and email similarity and reports
the pairs whose weighted score is above a threshold percentage.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: dedupe.yaml in ., ./config or /etc/dedupe)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stdout")
}

// SetServices injects the services used by the commands. Tests and embedding
// programs call it before Execute; otherwise they are built from config.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func initServices(cmd *cobra.Command, _ []string) error {
	if services != nil {
		return nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.NewNopLogger()
	if verbose {
		if log, err = app.NewLogger(cfg.Log); err != nil {
			return err
		}
	}

	store, err := app.OpenStore(cfg.Store)
	if err != nil {
		log.Close()
		return err
	}

	services = &Services{
		Matcher: app.NewMatcher(cfg.Matching, store, log),
		Store:   store,
		Logger:  log,
	}
	return nil
}

func closeServices() {
	if services == nil {
		return
	}
	if services.Store != nil {
		services.Store.Close()
	}
	if services.Logger != nil {
		services.Logger.Close()
	}
	services = nil
}

func matcher() *service.Matcher {
	if services == nil || services.Matcher == nil {
		return service.NewMatcher(service.Options{})
	}
	return services.Matcher
}

var errNoStore = errors.New("no template store configured")

func templateStore() (ports.TemplateStore, error) {
	if services == nil || services.Store == nil {
		return nil, errNoStore
	}
	return services.Store, nil
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
