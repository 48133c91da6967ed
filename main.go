package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"zapcrm/config"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const DEFAULT_CONFIG_PATH = "config.json"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "zapcrm",
		Short:         "zapcrm: CRM multi-tenant sobre um Gateway de WhatsApp",
		Long:          "Sincroniza chats, contatos e mensagens do Gateway e expõe a API de atendimento.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringP("config", "c", DEFAULT_CONFIG_PATH, "arquivo de configuração (.json ou .yaml)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zapcrm %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig lê o --config. O arquivo padrão é opcional (sem ele valem os defaults);
// um caminho passado explicitamente precisa existir.
func loadConfig(cmd *cobra.Command) (config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	conf, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		log.Printf("config: %s não encontrado, usando defaults", path)
		config.ApplyDefaults(&conf)
		return conf, nil
	}
	return conf, err
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
