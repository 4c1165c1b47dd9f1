package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zefruta/storefront/internal/storefront/app"
	"github.com/zefruta/storefront/pkg/authsdk"
)

func newRequestCommand(opts *rootOptions) *cobra.Command {
	var (
		data    string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Call the backend with the stored session",
		Example: "  storefront request GET /account/profile/me\n" +
			"  storefront request POST /orders --data '{\"items\":[]}'",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := http.Header{}
			for _, kv := range headers {
				k, v, ok := strings.Cut(kv, ":")
				if !ok {
					return errors.New("headers must look like 'Name: value'")
				}
				h.Add(strings.TrimSpace(k), strings.TrimSpace(v))
			}

			var body io.Reader
			if data != "" {
				body = strings.NewReader(data)
			}

			return withApp(opts, func(a *app.Application) error {
				resp, err := a.Gateway.Do(cmd.Context(), strings.ToUpper(args[0]), args[1], body, h)
				if errors.Is(err, authsdk.ErrSessionExpired) {
					return errors.New("session expired; log in again")
				}
				if err != nil {
					return err
				}
				defer resp.Body.Close()

				cmd.PrintErrf("HTTP %d\n", resp.StatusCode)
				_, err = io.Copy(os.Stdout, resp.Body)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Request body.")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header, repeatable.")
	return cmd
}
