package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zapcrm/controllers"
	"zapcrm/db"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Cria/atualiza as tabelas",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			database, err := db.Connect(conf)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	var orgID, instanceID int64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sincroniza os chats do Gateway uma vez",
		Long:  "Com --org e --instance sincroniza uma instância; sem flags sincroniza todas as instâncias conectadas.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (orgID == 0) != (instanceID == 0) {
				return fmt.Errorf("--org e --instance devem ser usados juntos")
			}
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			database, err := db.Connect(conf)
			if err != nil {
				return err
			}
			defer database.Close()

			emitter := newEmitter(cmd.Context(), conf)
			defer emitter.Close()

			app := newApp(conf, database, emitter)
			return runSync(cmd, app, orgID, instanceID)
		},
	}
	cmd.Flags().Int64Var(&orgID, "org", 0, "id da organização")
	cmd.Flags().Int64Var(&instanceID, "instance", 0, "id da instância")
	return cmd
}

func runSync(cmd *cobra.Command, app *controllers.App, orgID, instanceID int64) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if instanceID == 0 {
		n, err := app.Sync.SyncAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Synced %d instance(s)\n", n)
		return nil
	}

	res, err := app.Sync.SyncChats(ctx, orgID, instanceID)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	if !res.Success {
		return fmt.Errorf("sync falhou: %s", res.Message)
	}
	return nil
}

// token emite um JWT de desenvolvimento; o login de verdade fica fora do zapcrm.
func newTokenCmd() *cobra.Command {
	var orgID, userID int64
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite um token de acesso (dev)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID <= 0 || userID <= 0 {
				return fmt.Errorf("--org e --user são obrigatórios")
			}
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			token, err := controllers.SignToken(conf.Security.JwtSecret, userID, orgID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&orgID, "org", 0, "id da organização")
	cmd.Flags().Int64Var(&userID, "user", 0, "id do usuário")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "validade do token")
	return cmd
}
