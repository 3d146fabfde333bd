package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/facegate/internal/app"
	"github.com/dropDatabas3/facegate/internal/clients"
	"github.com/dropDatabas3/facegate/internal/store"
)

func newClientsCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Registro y listado de clientes OAuth",
	}

	open := func(cmd *cobra.Command) (*clients.Registry, func(), error) {
		cfg, err := load()
		if err != nil {
			return nil, nil, err
		}
		st, err := store.Open(cmd.Context(), app.StoreConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		return clients.NewRegistry(st.Clients), func() { _ = st.Close() }, nil
	}

	var (
		name         string
		redirectURIs []string
		grantTypes   []string
		scope        string
	)
	register := &cobra.Command{
		Use:   "register",
		Short: "Registra un cliente y muestra su secreto (una única vez)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := reg.Register(cmd.Context(), clients.Metadata{
				ClientName:   name,
				RedirectURIs: redirectURIs,
				GrantTypes:   grantTypes,
				Scope:        scope,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "client_id:     %s\n", out.Client.ClientID)
			fmt.Fprintf(w, "client_secret: %s\n", out.ClientSecret)
			fmt.Fprintf(w, "redirect_uris: %s\n", strings.Join(out.Client.RedirectURIs, " "))
			return nil
		},
	}
	register.Flags().StringVar(&name, "name", "", "nombre del cliente")
	register.Flags().StringSliceVar(&redirectURIs, "redirect-uri", nil, "redirect URI (repetible)")
	register.Flags().StringSliceVar(&grantTypes, "grant-type", nil, "grant type (default authorization_code,refresh_token)")
	register.Flags().StringVar(&scope, "scope", "", "scopes separados por espacio")
	_ = register.MarkFlagRequired("redirect-uri")

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista los clientes registrados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := reg.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLIENT_ID\tNAME\tSTATIC\tREDIRECT_URIS\tCREATED")
			for _, c := range all {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n",
					c.ClientID, c.Name, c.Static, strings.Join(c.RedirectURIs, ","), humanize.Time(c.CreatedAt))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s client(s)\n", humanize.Comma(int64(len(all))))
			return nil
		},
	}

	cmd.AddCommand(register, list)
	return cmd
}
