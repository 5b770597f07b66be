package commands

import (
	"fmt"
	"strconv"
	"vkposter/internal/config"
	"vkposter/lib/oauth"

	"github.com/spf13/cobra"
)

var authURLToken bool

func init() {
	authURLCmd.Flags().BoolVar(&authURLToken, "token", false, "Ask for an access token instead of a code.")
	rootCmd.AddCommand(authURLCmd)
}

var authURLCmd = &cobra.Command{
	Use:   "auth-url [--token]",
	Short: "Prints the url that authorizes the configured app.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Auth.AppID == 0 {
			return fmt.Errorf("%w: auth.app_id is required to build the url", config.ErrInvalidConfig)
		}

		responseType := oauth.ResponseTypeCode
		if authURLToken {
			responseType = oauth.ResponseTypeToken
		}
		authorizeURL, err := oauth.GetAuthorizeUrl(cmd.Context(), oauth.AuthorizeRequest{
			ClientId:     strconv.FormatInt(cfg.Auth.AppID, 10),
			RedirectUri:  cfg.Auth.RedirectURI,
			ResponseType: responseType,
		}, cfg.API.OAuthURL)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), authorizeURL)
		return nil
	},
}
