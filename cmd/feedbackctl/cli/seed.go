package cli

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/piyush182004/Fynd/pkg/form"
)

// sampleReviews holds demo review text by rating.
var sampleReviews = map[int][]string{
	5: {
		"Arrived a day early and fits perfectly. Will order again.",
		"Great quality for the price, the stitching is excellent.",
		"Customer support sorted my size exchange in minutes.",
	},
	4: {
		"Good product, packaging could be better.",
		"Nice fabric, runs slightly large.",
		"Happy overall, delivery took a little longer than promised.",
	},
	3: {
		"It is okay. Colour is a bit different from the photos.",
		"Average quality, does the job.",
	},
	2: {
		"Zip broke after a week of use.",
		"Delivery was late and the box was damaged.",
	},
	1: {
		"Received the wrong item and no reply from support yet.",
		"Never arrived. Still waiting on a refund.",
	},
}

func seedCommand(v *viper.Viper) *cobra.Command {
	var (
		count       int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Submit sample reviews for demos",
		Long: `Submit --count sample reviews with ratings weighted towards positive
feedback, running up to --concurrency submissions at once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)
			}

			client, _, err := newClient(cmd, v)
			if err != nil {
				return err
			}

			var submitted atomic.Int32
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i := 0; i < count; i++ {
				rating := randomRating()
				texts := sampleReviews[rating]
				text := texts[rand.IntN(len(texts))]

				g.Go(func() error {
					f := form.New()
					_ = f.SetRating(rating)
					_ = f.SetBody(text)
					if _, err := f.Submit(ctx, client); err != nil {
						return fmt.Errorf("submit sample review: %s", f.ErrorMessage())
					}
					submitted.Add(1)
					return nil
				})
			}
			err = g.Wait()

			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d of %d sample reviews\n", submitted.Load(), count)
			return err
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of reviews to submit")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum submissions in flight")

	return cmd
}

// randomRating draws 5 and 4 most often, like real storefront feedback.
func randomRating() int {
	switch n := rand.IntN(100); {
	case n < 45:
		return 5
	case n < 75:
		return 4
	case n < 87:
		return 3
	case n < 94:
		return 2
	default:
		return 1
	}
}
