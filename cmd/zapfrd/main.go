package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zapfr/engine/internal/agent"
	"github.com/zapfr/engine/internal/agent/eventbus"
	"github.com/zapfr/engine/internal/application/server"
	"github.com/zapfr/engine/internal/autorefresh"
	"github.com/zapfr/engine/internal/backend"
	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/httpclient"
	"github.com/zapfr/engine/internal/logger/zaplogger"
	"github.com/zapfr/engine/internal/messaging/nsqclient/producer"
	"github.com/zapfr/engine/internal/refresh"
	"github.com/zapfr/engine/internal/script"
	"github.com/zapfr/engine/internal/tracing"
	"github.com/zapfr/engine/internal/version"

	"go.uber.org/zap"
)

// agentConfig is the zapfr.agent Viper block: worker pool size for C9.
type agentConfig struct {
	Workers int `mapstructure:"workers"`
}

// privilegeConfig is the zapfr.privilege Viper block (spec §6 process
// lifecycle: "drops root to the configured user/group after opening
// privileged resources").
type privilegeConfig struct {
	User string `mapstructure:"user"`
}

// redirectLogger adapts *database.Repository to httpclient.RedirectLogger,
// recording every followed redirect as a Log entry scoped to its feed.
type redirectLogger struct {
	repo *database.Repository
}

func (l *redirectLogger) LogRedirect(associatedFeedID uuid.UUID, from, to string) {
	_ = l.repo.CreateLog(context.Background(), &entity.Log{
		Timestamp: time.Now(),
		Level:     entity.LogInfo,
		Message:   fmt.Sprintf("redirected from %s to %s", from, to),
		FeedID:    associatedFeedID,
	})
}

func main() {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "zapfrd",
		Short: "zapfr feed aggregation daemon",
		Long:  `Server process for the zapfr RSS/Atom/JSON feed aggregation engine`,
		Run:   run,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the application",
		Long:  `Software version`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("zapfrd version:", version.Version, "build on:", version.BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			viper.SetConfigName("config")
		}
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("FATAL: error in config file %s. %s\n", viper.ConfigFileUsed(), err)
		os.Exit(1)
	}
	fmt.Println("Using config file:", viper.ConfigFileUsed())

	logCfg := &zaplogger.Config{}
	if err := viper.UnmarshalKey("zapfr.logging", logCfg); err != nil {
		fmt.Println("Failure reading 'zapfr.logging' configuration:", err)
		os.Exit(1)
	}
	logger := zaplogger.New(logCfg)
	sugar := logger.Sugar()
	defer sugar.Sync()

	tracingCfg := tracing.Config{}
	if err := viper.UnmarshalKey("zapfr.tracing", &tracingCfg); err != nil {
		sugar.Fatal("Failure reading 'zapfr.tracing' configuration: ", err)
	}
	tracer, tracerCloser := tracing.New(tracingCfg, sugar)
	defer tracerCloser.Close()

	dbCfg := &database.Config{}
	if err := viper.UnmarshalKey("zapfr.database", dbCfg); err != nil {
		sugar.Fatal("Failure reading 'zapfr.database' configuration: ", err)
	}
	repo, err := database.New(dbCfg, tracer)
	if err != nil {
		sugar.Fatal("Failure opening database: ", err)
	}
	defer repo.Close()

	if _, err := repo.EnsureLocalSource(context.Background(), "Local"); err != nil {
		sugar.Fatal("Failure bootstrapping local source: ", err)
	}

	httpClient := httpclient.New(version.Version, &redirectLogger{repo: repo})
	scriptEngine := script.New()
	pipeline := refreshPipeline(repo, httpClient, scriptEngine, logger)
	if dbCfg.Path != "" && dbCfg.Path != ":memory:" {
		iconDir := filepath.Join(filepath.Dir(dbCfg.Path), "icons")
		if err := os.MkdirAll(iconDir, 0o755); err != nil {
			sugar.Fatal("Failure creating icon directory ", iconDir, ": ", err)
		}
		pipeline.IconDir = iconDir
	}

	agentCfg := &agentConfig{Workers: 4}
	if err := viper.UnmarshalKey("zapfr.agent", agentCfg); err != nil {
		sugar.Fatal("Failure reading 'zapfr.agent' configuration: ", err)
	}
	jobAgent := agent.New(agentCfg.Workers, logger)
	jobAgent.Start(context.Background())
	defer jobAgent.Stop()

	bus := eventbus.Disabled()
	if viper.IsSet("zapfr.publish") {
		publishCfg := &producer.MessageProducerConfig{}
		if err := viper.UnmarshalKey("zapfr.publish", publishCfg); err != nil {
			sugar.Fatal("Failure reading 'zapfr.publish' configuration: ", err)
		}
		b, err := eventbus.New(publishCfg)
		if err != nil {
			sugar.Fatal("Failure initialising NSQ event bus: ", err)
		}
		bus = b
	}
	defer bus.Stop()

	if viper.GetBool("zapfr.autorefresh.enabled") {
		autorefreshCfg := autorefresh.Config{}
		if err := viper.UnmarshalKey("zapfr.autorefresh", &autorefreshCfg); err != nil {
			sugar.Fatal("Failure reading 'zapfr.autorefresh' configuration: ", err)
		}
		autorefreshLoop := autorefresh.New(autorefreshCfg, repo, pipeline, jobAgent, logger)
		autorefreshLoop.OnRefreshed = func(feedID uuid.UUID) {
			if err := bus.PublishFeedRefreshed(feedID); err != nil {
				sugar.Warn("publishing feed.refreshed event failed: ", err)
			}
		}
		if err := autorefreshLoop.Start(context.Background()); err != nil {
			sugar.Fatal("Failure starting auto-refresh loop: ", err)
		}
		defer autorefreshLoop.Stop()
	}

	backends := localBackends(repo)

	serverCfg := server.Config{}
	if err := viper.UnmarshalKey("zapfr.server", &serverCfg); err != nil {
		sugar.Fatal("Failure reading 'zapfr.server' configuration: ", err)
	}
	httpServer := server.New(serverCfg, sugar, tracer, backends, pipeline, jobAgent)

	privCfg := &privilegeConfig{}
	if err := viper.UnmarshalKey("zapfr.privilege", privCfg); err != nil {
		sugar.Fatal("Failure reading 'zapfr.privilege' configuration: ", err)
	}

	if privCfg.User == "" {
		go httpServer.StartAndServe()
	} else {
		listener, err := net.Listen("tcp", serverCfg.Address)
		if err != nil {
			sugar.Fatal("Failure binding ", serverCfg.Address, ": ", err)
		}
		if err := dropPrivileges(privCfg.User); err != nil {
			sugar.Fatal("Failure dropping privileges to ", privCfg.User, ": ", err)
		}
		go httpServer.Serve(listener)
	}

	sugar.Info("zapfrd started")
	waitForShutdown(sugar, httpServer)
}

// dropPrivileges switches the process's effective uid/gid to targetUser's
// (spec §6: "drops root to the configured user/group after opening
// privileged resources") and rewrites HOME to match.
func dropPrivileges(targetUser string) error {
	u, err := user.Lookup(targetUser)
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", targetUser, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("parsing gid %q: %w", u.Gid, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("parsing uid %q: %w", u.Uid, err)
	}
	if err := unix.Setgid(gid); err != nil {
		return fmt.Errorf("setgid(%d): %w", gid, err)
	}
	if err := unix.Setuid(uid); err != nil {
		return fmt.Errorf("setuid(%d): %w", uid, err)
	}
	return os.Setenv("HOME", u.HomeDir)
}

func refreshPipeline(repo *database.Repository, httpClient *httpclient.Client, scriptEngine *script.Engine, logger *zap.Logger) *refresh.Pipeline {
	return refresh.New(repo, httpClient, scriptEngine, logger)
}

// localBackends wires server.Backends against the embedded store: every
// Source this process owns is of type "local" (remote sources are
// consumed from the other side, via apiclient).
func localBackends(repo *database.Repository) server.Backends {
	return server.Backends{
		Feeds:         &backend.LocalFeedBackend{Repo: repo},
		Folders:       &backend.LocalFolderBackend{Repo: repo},
		Posts:         &backend.LocalPostBackend{Repo: repo},
		Sources:       &backend.LocalSourceBackend{Repo: repo},
		Scripts:       &backend.LocalScriptBackend{Repo: repo},
		ScriptFolders: &backend.LocalScriptFolderBackend{Repo: repo},
		Stats:         &backend.LocalStatsBackend{Repo: repo},
		Logs:          &backend.LocalLogBackend{Repo: repo},
	}
}

func waitForShutdown(sugar interface{ Info(args ...interface{}) }, httpServer *server.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	sugar.Info("shutting down")
	httpServer.Shutdown()
}
