package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/transfer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var v *viper.Viper

	root := &cobra.Command{
		Use:           "contentctl",
		Short:         "Manage the content of the hearing aid site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			v, err = newViper(cmd.Flags())
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.String(cfgKeyConfig, "config.yaml", "server config file")
	flags.String(cfgKeyBackend, "", "storage backend: sqlite, postgres, remote, kv, file or s3")
	flags.String(cfgKeyEndpoint, "", "data endpoint URL for the remote backend")
	flags.String(cfgKeyFile, "", "content file for the file backend")
	flags.String(cfgKeyLogLevel, "warn", "log level")

	viperOf := func() *viper.Viper { return v }
	root.AddCommand(
		newPullCmd(viperOf),
		newPushCmd(viperOf),
		newStatusCmd(viperOf),
		newArticlesCmd(viperOf),
		newVersionCmd(),
	)
	return root
}

func newPullCmd(viperOf func() *viper.Viper) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download every collection as an export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := openStore(cmd.Context(), viperOf())
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := store.PullAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("pull: %w", err)
			}
			doc, err := transfer.Export(snap, time.Now())
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(doc.Body)
				return err
			}
			if err := os.WriteFile(output, doc.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newPushCmd(viperOf func() *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "push <file>",
		Short: "Replace the stored content with an export document",
		Long: `Push replaces every editable collection and the hero with the
content of the document. Stored orders are never changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			snap, err := transfer.Import(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			store, closeFn, err := openStore(cmd.Context(), viperOf())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.PushAll(cmd.Context(), snap); err != nil {
				return fmt.Errorf("push: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, kind := range model.EditableKinds {
				fmt.Fprintf(out, "%-12s %d\n", kind, snap.Len(kind))
			}
			return nil
		},
	}
}

func newStatusCmd(viperOf func() *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Change the status of an order",
		Long:  "Status is one of new, processing or completed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := model.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}

			store, closeFn, err := openStore(cmd.Context(), viperOf())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.UpdateOrderStatus(cmd.Context(), args[0], status); err != nil {
				return fmt.Errorf("update order %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", args[0], status)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the contentctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			rev := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						rev = s.Value
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "contentctl %s (%s)\n", version, rev)
		},
	}
}
