package internal

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/errs"
	"github.com/MrSnakeDoc/metafetch/internal/fetch"
	"github.com/MrSnakeDoc/metafetch/internal/middleware"
	"github.com/MrSnakeDoc/metafetch/internal/store"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the metadata of a site, downloading it only when it changed",
		Example: `metafetch get
metafetch get --site DE --detail ShippingServiceDetails
metafetch get --refresh --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := middleware.Get[*config.Config](cmd, middleware.CtxKeyConfig)
			if err != nil {
				return err
			}
			st, err := middleware.Get[store.Backend](cmd, middleware.CtxKeyStore)
			if err != nil {
				return err
			}
			defer utils.Close(st)

			var req fetch.Request
			if req.Site, err = cmd.Flags().GetString("site"); err != nil {
				return err
			}
			if req.Details, err = cmd.Flags().GetStringSlice("detail"); err != nil {
				return err
			}
			if req.Refresh, err = cmd.Flags().GetBool("refresh"); err != nil {
				return err
			}
			if req.Offline, err = cmd.Flags().GetBool("offline"); err != nil {
				return err
			}
			if req.JSON, err = cmd.Flags().GetBool("json"); err != nil {
				return err
			}
			if req.Refresh && req.Offline {
				return middleware.FlagComboError(errs.RefreshWithoutFetch)
			}

			f, err := fetch.New(cfg, st)
			if err != nil {
				return err
			}
			f.Out = cmd.OutOrStdout()
			return f.Execute(cmd.Context(), req)
		},
	}

	cmd.Flags().StringP("site", "s", "", "Site code (default from config)")
	cmd.Flags().StringSliceP("detail", "d", nil, "Detail sections to request (repeatable, default from config)")
	cmd.Flags().BoolP("refresh", "r", false, "Download the full payload even if the cache is fresh")
	cmd.Flags().Bool("offline", false, "Serve the cached payload without contacting the API")
	cmd.Flags().Bool("json", false, "Print the payload as JSON")
	return cmd
}
