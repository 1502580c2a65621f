package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/server"
	"github.com/arloliu/rossdash/snapshot"
)

const shutdownTimeout = 10 * time.Second

// Convert the telemetry file to a snapshot.
func snapshotCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write the decoded telemetry as a compressed snapshot.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			name, err := cmd.Flags().GetString("compression")
			if err != nil {
				return err
			}
			ct, err := format.ParseCompressionType(name)
			if err != nil {
				return err
			}
			bigEndian, err := cmd.Flags().GetBool("big-endian")
			if err != nil {
				return err
			}

			tel, src, err := a.open()
			if err != nil {
				return err
			}

			opts := []snapshot.Option{
				snapshot.WithCompression(ct),
				snapshot.WithSourceFingerprint(src.Fingerprint),
			}
			if bigEndian {
				opts = append(opts, snapshot.WithBigEndian())
			}
			h, err := snapshot.WriteFile(out, tel, opts...)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"out":         out,
				"compression": h.Compression.String(),
				"bytes":       h.BodyLength + snapshot.HeaderSize,
			}).Info("wrote snapshot")

			return nil
		},
	}

	cmd.Flags().String("out", "", "snapshot file to write")
	cmd.Flags().String("compression", "zstd", "column compression: none, zstd, s2 or lz4")
	cmd.Flags().Bool("big-endian", false, "write big-endian column data")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// Serve the telemetry file over the JSON API until interrupted.
func serveCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the telemetry over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, err := cmd.Flags().GetString("listen")
			if err != nil {
				return err
			}

			tel, src, err := a.open()
			if err != nil {
				return err
			}
			srv, err := server.New(tel, server.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", listen, err)
			}
			a.log.WithFields(logrus.Fields{"addr": lis.Addr().String(), "source": src.Path}).Info("serving telemetry")

			return serve(ctx, lis, srv.Handler(), a.log)
		},
	}

	cmd.Flags().String("listen", ":8080", "address to listen on")

	return cmd
}

// serve runs an HTTP server on lis until ctx is done, then shuts it down.
func serve(ctx context.Context, lis net.Listener, h http.Handler, log logrus.FieldLogger) error {
	httpSrv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
