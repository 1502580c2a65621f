package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arloliu/rossdash"
	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/rossfile"
	"github.com/arloliu/rossdash/table"
)

// DataEnv names the environment variable that locates the telemetry file.
const DataEnv = "ROSS_DATA_PATH"

// App carries the state shared by all subcommands.
type App struct {
	v   *viper.Viper
	log *logrus.Logger
}

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	a := &App{v: viper.New(), log: logrus.New()}

	cmd := &cobra.Command{
		Use:   "rossdash",
		Short: "rossdash inspects ROSS simulation instrumentation logs.",
		Long: `rossdash inspects ROSS simulation instrumentation logs.

The telemetry file is taken from --data, the ROSS_DATA_PATH environment
variable or the "data" key of the file passed with --config. It may be a raw
log or a snapshot written by "rossdash snapshot". A log compressed with zstd,
s2 or lz4 is read with --input-compression naming the codec, or "auto" to
detect it from the stream.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("data", "", "telemetry log or snapshot to read (env "+DataEnv+")")
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("byte-order", "little", "byte order of raw logs: little, big or native")
	flags.Bool("skip-unknown", false, "skip records with an unrecognized payload length instead of failing")
	flags.String("input-compression", "none", "compression of raw logs: auto, none, zstd, s2 or lz4")

	bindFlags(a.v, flags, "data", "log-level", "log-format", "byte-order", "skip-unknown", "input-compression")
	a.v.SetEnvPrefix("rossdash")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindEnv("data", DataEnv, "ROSSDASH_DATA")

	cmd.AddCommand(
		summaryCmd(a),
		columnsCmd(a),
		queryCmd(a),
		snapshotCmd(a),
		serveCmd(a),
		generateCmd(a),
	)

	return cmd
}

// bindFlags makes each named flag the highest precedence source of the viper
// key with the same name.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(name, f)
		}
	}
}

func (a *App) init(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	a.log.SetOutput(cmd.ErrOrStderr())

	return configureLogger(a.log, a.v.GetString("log-level"), a.v.GetString("log-format"))
}

func configureLogger(log *logrus.Logger, level, logFormat string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	switch strings.ToLower(logFormat) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}

	return nil
}

func (a *App) decoderOptions() ([]rossfile.DecoderOption, error) {
	engine, err := endian.ParseEngine(a.v.GetString("byte-order"))
	if err != nil {
		return nil, err
	}

	ct, err := format.ParseCompressionType(a.v.GetString("input-compression"))
	if err != nil {
		return nil, err
	}

	opts := []rossfile.DecoderOption{
		rossfile.WithByteOrder(engine),
		rossfile.WithCompression(ct),
		rossfile.WithLogger(a.log),
	}
	if a.v.GetBool("skip-unknown") {
		opts = append(opts, rossfile.WithSkipPolicy(format.SkipDeclared))
	}

	return opts, nil
}

// open loads the configured telemetry file.
func (a *App) open() (*table.Telemetry, rossdash.Source, error) {
	path := a.v.GetString("data")
	if path == "" {
		return nil, rossdash.Source{}, fmt.Errorf("no telemetry file: pass --data or set %s", DataEnv)
	}

	opts, err := a.decoderOptions()
	if err != nil {
		return nil, rossdash.Source{}, err
	}

	return rossdash.Open(path, opts...)
}
