package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/capture"
	"github.com/calyptra/gatepatch/pkg/gateway"
	"github.com/calyptra/gatepatch/pkg/logging"
	"github.com/calyptra/gatepatch/pkg/patch"
	"github.com/calyptra/gatepatch/pkg/rest"
	"github.com/calyptra/gatepatch/pkg/spoof"
	"github.com/calyptra/gatepatch/pkg/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the gateway with the default patch set installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdRun(cmd.Context())
	},
}

func init() {
	runCmd.Flags().String("token", "", "authentication token (or GATEPATCH_TOKEN)")
	runCmd.Flags().String("api-url", "https://discord.com/api/v9", "REST API base URL")
	runCmd.Flags().String("gateway-url", "", "gateway URL override (default: ask the API)")
	runCmd.Flags().String("events", "", "path to a JSON-L event log")
	runCmd.Flags().String("capture-db", "", "path to a capture database")
	runCmd.Flags().String("locale", "", "override the spoofed system locale")
	runCmd.Flags().Int("build-number", 0, "override the spoofed client build number")

	viper.BindPFlag("run.token", runCmd.Flags().Lookup("token"))
	viper.BindPFlag("run.api-url", runCmd.Flags().Lookup("api-url"))
	viper.BindPFlag("run.gateway-url", runCmd.Flags().Lookup("gateway-url"))
	viper.BindPFlag("run.events", runCmd.Flags().Lookup("events"))
	viper.BindPFlag("run.capture-db", runCmd.Flags().Lookup("capture-db"))
	viper.BindPFlag("run.locale", runCmd.Flags().Lookup("locale"))
	viper.BindPFlag("run.build-number", runCmd.Flags().Lookup("build-number"))

	rootCmd.AddCommand(runCmd)
}

func cmdRun(ctx context.Context) error {
	token := viper.GetString("run.token")
	if token == "" {
		token = os.Getenv("GATEPATCH_TOKEN")
	}
	if token == "" {
		return ErrTokenRequired
	}

	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)

	session := spoof.NewSession(token)
	if locale := viper.GetString("run.locale"); locale != "" {
		session.Properties.SystemLocale = locale
	}
	if build := viper.GetInt("run.build-number"); build != 0 {
		session.Properties.ClientBuildNumber = build
	}

	reg := patch.NewRegistry()
	spoof.Install(reg)

	var emitter *logging.Emitter
	if path := viper.GetString("run.events"); path != "" {
		w, err := logging.NewJSONLWriter(path)
		if err != nil {
			return errx.Wrap(ErrOpenEventLog, err)
		}
		emitter = logging.NewEmitter(logging.EmitterConfig{RunID: runID, Client: "gatepatch"}, w)
		defer emitter.Close()
	}

	var store *capture.Store
	if path := viper.GetString("run.capture-db"); path != "" {
		var err error
		store, err = capture.Open(path, runID)
		if err != nil {
			return errx.Wrap(ErrOpenCapture, err)
		}
		defer store.Close()
	}

	restInterceptor := rest.NewInterceptor(reg, session, logger, emitter)
	client := transport.NewRESTClient(viper.GetString("run.api-url"), session, restInterceptor, logger)

	gatewayURL := viper.GetString("run.gateway-url")
	if gatewayURL == "" {
		var err error
		gatewayURL, err = fetchGatewayURL(ctx, client, store)
		if err != nil {
			return err
		}
	}

	gw := transport.NewGateway(transport.GatewayOptions{
		URL:     gatewayURL,
		Shards:  1,
		Session: session,
		Logger:  logger,
		Consumer: func(shardID int, f *api.Frame) error {
			logger.Info("dispatch", "shard", shardID, "op", f.Op.String(), "event", f.T)
			if store != nil {
				return store.RecordFrame(ctx, "inbound", f)
			}
			return nil
		},
	})

	gatewayInterceptor := gateway.NewInterceptor(reg, session, logger, emitter)
	if err := gatewayInterceptor.Attach(gw); err != nil {
		return err
	}

	if err := gw.Connect(ctx); err != nil {
		return errx.Wrap(ErrConnectGateway, err)
	}
	defer gw.Close()

	logger.Info("connected", "gateway", gatewayURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return nil
}

// fetchGatewayURL asks the API where the gateway lives. The request goes
// through the interception pipeline, so the bot-info route is redirected
// and its response reshaped by the installed patches.
func fetchGatewayURL(ctx context.Context, client *transport.RESTClient, store *capture.Store) (string, error) {
	req := &api.RouteRequest{Method: "GET", Route: "/gateway/bot"}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return "", errx.Wrap(ErrFetchGateway, err)
	}
	if store != nil {
		_ = store.RecordRequest(ctx, req, resp)
	}
	if resp.StatusCode != 200 {
		return "", errx.With(ErrFetchGateway, fmt.Sprintf(": status %d", resp.StatusCode))
	}

	var info struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return "", errx.Wrap(ErrFetchGateway, err)
	}
	if info.URL == "" {
		return "", errx.With(ErrFetchGateway, ": response has no gateway url")
	}
	return info.URL + "/?v=9&encoding=json", nil
}
