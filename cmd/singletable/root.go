package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/acksell/singletable/dynamodb/awsenv"
	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/ddbremote"
	"github.com/acksell/singletable/dynamodb/ddbstore"
	"github.com/acksell/singletable/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const remoteWaitTimeout = 30 * time.Second

// app carries what the subcommands share once flags are resolved.
type app struct {
	cfg     Config
	log     *zap.Logger
	db      ddbiface.Database
	models  *model.Store
	catalog *ddbstore.Catalog
	// ownsCatalog is false when local tables outlive one command.
	ownsCatalog bool
}

func newRootCmd() *cobra.Command {
	return (&app{}).command()
}

// newRootCmdWithCatalog serves the memory and badger backends from catalog,
// so tables survive across executions within one process.
func newRootCmdWithCatalog(catalog *ddbstore.Catalog) *cobra.Command {
	return (&app{catalog: catalog}).command()
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "singletable",
		Short:         "Work with a single-table DynamoDB design",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String(keyEndpointURL, "", "DynamoDB endpoint, e.g. http://localhost:8000 (env AWS_ENDPOINT_URL)")
	flags.String(keyRegion, "", "AWS region (env AWS_REGION)")
	flags.String(keyTableName, "single-table", "The DynamoDB table name (you only need one)")
	flags.String(keyBackend, backendDynamoDB, "Storage backend: memory, badger or dynamodb")
	flags.String(keyLogLevel, "warn", "Log level: debug, info, warn or error")
	flags.Bool(keyDebug, false, "Human readable debug logging")
	flags.Bool(keyMetrics, false, "Write operation metrics to stderr on exit")

	root.AddCommand(
		a.createCmd(),
		a.deleteCmd(),
		a.describeCmd(),
		a.scanCmd(),
		a.putModelCmd(),
		a.putSubModelCmd(),
		a.getModelCmd(),
		a.getSubModelCmd(),
		a.listModelsCmd(),
		a.listSubModelsCmd(),
		a.queryCmd(),
		a.serveCmd(),
		a.whoamiCmd(),
	)

	// Teardown runs after every command, failed ones included, which
	// PersistentPostRunE does not do.
	for _, c := range root.Commands() {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			return errors.Join(err, a.teardown(cmd))
		}
	}
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	loadEnvFiles()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	file, path, err := LoadFileConfig(wd)
	if err != nil {
		return err
	}
	a.cfg, err = resolveConfig(cmd.Flags(), file)
	if err != nil {
		return err
	}

	a.log, err = newLogger(a.cfg.LogLevel, a.cfg.Debug)
	if err != nil {
		return err
	}
	if path != "" {
		a.log.Debug("loaded config file", zap.String("path", path))
	}

	if cmd.Annotations[annotationNoTable] != "" {
		return nil
	}
	a.db, err = a.openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	a.models = model.NewStore(a.db)
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	if a.ownsCatalog {
		if err := a.catalog.Close(); err != nil {
			a.log.Warn("close local tables", zap.Error(err))
		}
	}
	if a.cfg.Metrics {
		metrics.WritePrometheus(cmd.ErrOrStderr(), false)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}

func (a *app) openDatabase(ctx context.Context) (ddbiface.Database, error) {
	switch a.cfg.Backend {
	case backendMemory, backendBadger:
		backend := ddbstore.BackendBTree
		if a.cfg.Backend == backendBadger {
			backend = ddbstore.BackendBadger
		}
		if a.catalog == nil {
			a.catalog = ddbstore.NewCatalog(ddbstore.Options{
				Backend: backend,
				Logger:  a.log,
			})
			a.ownsCatalog = true
		}
		return a.catalog.Open(a.cfg.TableName)

	default:
		cfg, err := a.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return ddbremote.New(dynamodb.NewFromConfig(cfg), a.cfg.TableName, ddbremote.Options{
			WaitTimeout: remoteWaitTimeout,
			Logger:      a.log,
		}), nil
	}
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	cfg, resolved, err := awsenv.LoadConfig(ctx, awsenv.Settings{
		Region:      a.cfg.Region,
		EndpointURL: a.cfg.EndpointURL,
	})
	if err != nil {
		return aws.Config{}, err
	}
	a.log.Debug("resolved aws config",
		zap.Stringer("mode", resolved.Mode),
		zap.String("region", cfg.Region),
		zap.String("endpoint", resolved.Endpoint),
	)
	return cfg, nil
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		level = "debug"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
