package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acksell/singletable/dynamodb/awsenv"
	"github.com/acksell/singletable/dynamodb/ddbhttp"
	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/model"
	"github.com/spf13/cobra"
)

// annotationNoTable marks commands that do not open the table.
const annotationNoTable = "singletable/no-table"

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the table using the predefined schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc, err := a.db.CreateTable(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), desc)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc, err := a.db.DeleteTable(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), desc)
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Describe the table schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc, err := a.db.DescribeTable(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), desc)
		},
	}
}

func (a *app) scanCmd() *cobra.Command {
	var (
		index string
		limit int32
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for all items in the table (or an index)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var limitPtr *int32
			if cmd.Flags().Changed("limit") {
				limitPtr = &limit
			}
			out, err := a.db.Scan(cmd.Context(), optional(index), limitPtr)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), out.Items, out.Count)
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "Index to scan instead of the table")
	cmd.Flags().Int32Var(&limit, "limit", 0, "Maximum number of items")
	return cmd
}

func (a *app) putModelCmd() *cobra.Command {
	var value int32
	cmd := &cobra.Command{
		Use:   "put-model NAME",
		Short: "Put a model into the table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := model.New(args[0], value)
			if err := a.models.PutModel(cmd.Context(), m); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().Int32Var(&value, "value", 0, "Numeric value stored with the model")
	return cmd
}

func (a *app) putSubModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put-submodel PARENT NAME",
		Short: "Put a submodel under an existing model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm := model.NewSubModel(args[0], args[1])
			if err := a.models.PutSubModel(cmd.Context(), sm); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sm)
		},
	}
}

func (a *app) getModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-model NAME",
		Short: "Get a model by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.models.GetModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
}

func (a *app) getSubModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-submodel PARENT NAME",
		Short: "Get a submodel by parent model and name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := a.models.GetSubModel(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sm)
		},
	}
}

func (a *app) listModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-models",
		Short: "List every model, read from the model index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			models, err := a.models.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), models)
		},
	}
}

func (a *app) listSubModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-submodels PARENT",
		Short: "List the submodels of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subs, err := a.models.ListSubModels(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), subs)
		},
	}
}

func (a *app) queryCmd() *cobra.Command {
	var index string
	cmd := &cobra.Command{
		Use:   "query PK [SK]",
		Short: "Query for items by pk and optional sk prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sk string
			if len(args) == 2 {
				sk = args[1]
			}
			out, err := a.db.Query(cmd.Context(), optional(index), args[0], sk)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), out.Items, out.Count)
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "Index to query instead of the table, e.g. model")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the table over a JSON HTTP API until interrupted",
		Long: `Serve the table over a JSON HTTP API until interrupted.

With the memory or badger backend this keeps one emulated table alive for
the lifetime of the process, so it can be used from other tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := ddbhttp.NewServer(a.db, ddbhttp.ServerConfig{Addr: addr, Logger: a.log})
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	return cmd
}

func (a *app) whoamiCmd() *cobra.Command {
	var withUser bool
	cmd := &cobra.Command{
		Use:         "whoami",
		Short:       "Show details about the current AWS credentials",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoTable: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.awsConfig(cmd.Context())
			if err != nil {
				return err
			}
			stsClient, iamClient := awsenv.NewWhoAmIClients(cfg)
			var id *awsenv.Identity
			if withUser {
				id, err = awsenv.WhoAmI(cmd.Context(), stsClient, iamClient)
			} else {
				id, err = awsenv.WhoAmI(cmd.Context(), stsClient, nil)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), id)
		},
	}
	cmd.Flags().BoolVar(&withUser, "user", false, "Also look up the IAM user name")
	return cmd
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// exitError turns well known errors into friendlier messages.
func exitError(err error) error {
	switch {
	case errors.Is(err, model.ErrParentNotFound):
		return fmt.Errorf("%w (create the parent with put-model first)", err)
	case errors.Is(err, ddbiface.ErrNotFound):
		return fmt.Errorf("%w (create the table with the create command first)", err)
	default:
		return err
	}
}
