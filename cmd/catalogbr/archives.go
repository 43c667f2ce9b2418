package main

import (
	"fmt"

	storage "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage"

	"github.com/spf13/cobra"
)

func newArchivesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "Manage archives in the configured archive storage",
	}

	var prefix string
	list := &cobra.Command{
		Use:   "list",
		Short: "List archive objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchiveStorage(cmd, root, func(conn storage.StorageConnection) error {
				return conn.ListObjects(cmd.Context(), "", prefix, func(name string) error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), name)
					return err
				})
			})
		},
	}
	list.Flags().StringVar(&prefix, "prefix", "", "Only list objects starting with this prefix")

	del := &cobra.Command{
		Use:   "delete NAME...",
		Short: "Delete archive objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchiveStorage(cmd, root, func(conn storage.StorageConnection) error {
				for _, name := range args {
					if err := conn.DeleteObject(cmd.Context(), "", name); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func withArchiveStorage(cmd *cobra.Command, root *rootOptions, fn func(storage.StorageConnection) error) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	var conn storage.StorageConnection
	return runApplication(cmd.Context(), cfg, func() error { return fn(conn) }, &conn)
}
