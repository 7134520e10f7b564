package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piyush182004/Fynd/pkg/form"
)

func submitCommand(v *viper.Viper) *cobra.Command {
	var (
		rating int
		review string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a review",
		Long: `Submit a star rating and review text. Input is checked locally first;
nothing is sent when the rating or review is missing. Pass --review - to
read the review from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := review
			if body == "-" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read review from stdin: %w", err)
				}
				body = strings.TrimRight(string(raw), "\n")
			}

			f := form.New()
			if err := f.SetRating(rating); err != nil {
				return fmt.Errorf("--rating: %w", err)
			}
			if err := f.SetBody(body); err != nil {
				return fmt.Errorf("--review: %w", err)
			}

			client, _, err := newClient(cmd, v)
			if err != nil {
				return err
			}

			resp, err := f.Submit(cmd.Context(), client)
			if err != nil {
				return errors.New(f.ErrorMessage())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (review #%d, %s)\n", f.SuccessMessage(), resp.ID, strings.Repeat("★", rating))
			return nil
		},
	}

	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "Star rating from 1 to 5")
	cmd.Flags().StringVar(&review, "review", "", "Review text, or - to read stdin")

	return cmd
}
