package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"packreg/internal/blobstore"
	"packreg/internal/config"
	"packreg/internal/lockmap"
	"packreg/internal/maven"
	"packreg/internal/registry"
	"packreg/internal/server"
	"packreg/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the packreg registry server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}
			metadataLoc, err := cfg.MetadataLocation()
			if err != nil {
				return err
			}

			projects, err := config.LoadProjects(cfg.ProjectsPath)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			cas, err := blobstore.NewLocalCAS(cfg.BlobRoot)
			if err != nil {
				return err
			}

			blobs := registry.NewBlobService(st, cas, logger)
			publisher := registry.LogPublisher{Logger: slog.Default().With("component", "events")}
			mavenSvc := maven.NewService(st, blobs, lockmap.New(), server.NewAccessPolicy(),
				publisher, logger, metadataLoc)

			srv := server.New(addr, []registry.Service{mavenSvc}, projects, blobs, logger)
			return srv.ListenAndServe()
		},
	}
}
