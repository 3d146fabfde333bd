// Command facegate es el servidor de autorización biométrico y su CLI de
// operación (migraciones, claves y clientes).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/facegate/internal/app"
	"github.com/dropDatabas3/facegate/internal/config"
	"github.com/dropDatabas3/facegate/internal/observability/logger"
)

func main() {
	// .env es opcional; en prod las variables vienen del entorno.
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "facegate",
		Short:         "Servidor OAuth2/OIDC con autenticación facial",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("FACEGATE_CONFIG"), "ruta al YAML de configuración (env FACEGATE_CONFIG)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: "facegate",
			Version:     app.Version,
		})
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newKeysCmd(),
		newClientsCmd(load),
		newVersionCmd(),
	)
	return root
}

type loadFunc func() (*config.Config, error)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "facegate", app.Version)
		},
	}
}
