package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ai-interview-eval-service/internal/observability/logging"
	"ai-interview-eval-service/internal/schema"
	"ai-interview-eval-service/internal/service/practice"
	"ai-interview-eval-service/internal/store"
)

// Set by the release build.
var version = "dev"

const (
	textOut = "text"
	jsonOut = "json"

	defaultDSN = "file:answerscore.db"
)

// cli holds the state shared by every subcommand of one root command.
type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "answerscore",
		Short: "Score interview answers and track practice progress.",
		Long: `answerscore rates behavioral and spoken interview answers on STAR structure,
clarity, confidence and filler words, and keeps a local history of scored sessions.`,
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.initConfig()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("store", store.BackendSQLite, "Session store backend: memory or sqlite or postgres or mysql")
	pf.String("dsn", defaultDSN, "Store connection string (sqlite file, user:pass@tcp(host:port)/db, or postgres DSN)")
	pf.Int("capacity", store.DefaultCapacity, "Number of sessions kept before the oldest is evicted")
	pf.String("output", textOut, "Output format: text or json")
	pf.Bool("color", true, "Colour grades and labels")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("config", "", "Path to config file")
	if err := c.v.BindPFlags(pf); err != nil {
		panic(fmt.Sprintf("bind root flags: %v", err))
	}

	root.AddCommand(
		c.scoreCmd(),
		c.minuteCmd(),
		c.questionsCmd(),
		c.historyCmd(),
		c.analyticsCmd(),
		c.deleteCmd(),
		c.exportCmd(),
		c.mcpCmd(),
		c.schemaCmd(),
	)
	return root
}

// initConfig merges the config file and ANSWERSCORE_* variables under the
// flags, then sets up logging on stderr.
func (c *cli) initConfig() error {
	if configFile := c.v.GetString("config"); configFile != "" {
		c.v.SetConfigFile(configFile)
	} else {
		c.v.SetConfigName(".answerscore")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$HOME")
	}

	c.v.SetEnvPrefix("ANSWERSCORE")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	switch out := c.v.GetString("output"); out {
	case textOut, jsonOut:
	default:
		return fmt.Errorf("invalid output format %q: must be text or json", out)
	}

	if !c.v.GetBool("color") {
		color.NoColor = true
	}

	logging.Init(logging.Config{
		Level:  c.v.GetString("log-level"),
		Format: "console",
		Output: c.errOut,
	})
	return nil
}

// openService connects the configured store and wraps it in a practice
// service. The returned func closes the store.
func (c *cli) openService(ctx context.Context) (*practice.Service, func(), error) {
	v, err := schema.New()
	if err != nil {
		return nil, nil, fmt.Errorf("compile schemas: %w", err)
	}
	backend := c.v.GetString("store")
	st, err := store.Open(ctx, backend, c.v.GetString("dsn"), c.v.GetInt("capacity"), store.WithValidator(v))
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("store", backend).Msg("Session store opened")

	closeFn := func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close session store")
		}
	}
	return practice.New(practice.Config{Store: st, Capacity: c.v.GetInt("capacity")}), closeFn, nil
}

func (c *cli) jsonOutput() bool {
	return c.v.GetString("output") == jsonOut
}
