// Command expensectl manages the expense list from a terminal, over the same
// storage and change events as the web server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"myexpenses/internal/backend"
	"myexpenses/internal/cli"
	"myexpenses/internal/config"
	"myexpenses/internal/services"
)

const envPrefix = "MYEXPENSES"

// state is shared by the subcommands. svc is opened lazily by the root
// PersistentPreRunE unless already set.
type state struct {
	v      *viper.Viper
	svc    *services.ExpenseService
	closer func() error
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(st *state) *cobra.Command {
	if st.v == nil {
		st.v = viper.New()
	}

	root := &cobra.Command{
		Use:   "expensectl",
		Short: "Record, list, import and export expenses",
		Long: `expensectl works on the same expense list as the myexpenses web server.

Storage settings come from the environment (.env is loaded when present);
flags and MYEXPENSES_* variables override them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: st.open,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return st.close()
		},
	}
	root.SetIn(st.in)
	root.SetOut(st.out)
	root.SetErr(st.errOut)

	flags := root.PersistentFlags()
	flags.String("backend", "", "storage backend (sqlite, memory)")
	flags.String("db", "", "SQLite database path")
	flags.String("key", "", "storage key of the expense list")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	for _, name := range []string{"backend", "db", "key", "log-level"} {
		_ = st.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		addCmd(st),
		listCmd(st),
		deleteCmd(st),
		clearCmd(st),
		importCmd(st),
		exportCmd(st),
		summaryCmd(st),
	)
	return root
}

// open resolves configuration and opens the backend.
func (st *state) open(cmd *cobra.Command, _ []string) error {
	if st.svc != nil {
		return nil
	}

	cli.LoadEnvFile()
	cfg := config.Load()

	v := st.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("backend", cfg.DataBackend)
	v.SetDefault("db", cfg.SQLiteDBPath)
	v.SetDefault("key", cfg.StorageKey)

	cfg.DataBackend = v.GetString("backend")
	cfg.SQLiteDBPath = v.GetString("db")
	cfg.StorageKey = v.GetString("key")
	cfg.LogLevel = v.GetString("log-level")

	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, st.errOut)
	if err := cfg.Validate(); err != nil {
		return err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), bcfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}

	st.svc = be.Service
	st.closer = be.Close
	return nil
}

func (st *state) close() error {
	if st.closer == nil {
		return nil
	}
	err := st.closer()
	st.closer = nil
	return err
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st := &state{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	err := newRootCmd(st).ExecuteContext(ctx)
	cancel()

	if err != nil {
		_ = st.close()
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}
