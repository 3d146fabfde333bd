package main

import (
	"fmt"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/facegate/internal/jwt"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Gestión de la clave de firma",
	}

	var out, kid string
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Genera una clave Ed25519 y la escribe en --out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := jwtx.Generate(kid)
			if err != nil {
				return err
			}
			if err := ks.WriteFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (kid=%s)\n", out, ks.KID)
			return nil
		},
	}
	gen.Flags().StringVar(&out, "out", "signing-key.json", "archivo de salida")
	gen.Flags().StringVar(&kid, "kid", "", "key id (default derivado de la fecha)")

	cmd.AddCommand(gen)
	return cmd
}
