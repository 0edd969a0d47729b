package cli

import (
	"context"
	"fmt"

	appreview "github.com/bobvengers/mapmate/internal/application/review"
	"github.com/bobvengers/mapmate/internal/domain/review"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"github.com/spf13/cobra"
)

func newReviewsCommand(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Short:   "Read and write map reviews",
		GroupID: "browse",
	}
	cmd.AddCommand(
		newReviewsMapCommand(get),
		newReviewsMineCommand(get),
		newReviewsAddCommand(get),
		newReviewsEditCommand(get),
		newReviewsDeleteCommand(get),
	)
	return cmd
}

func newReviewsMapCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "map MAP_ID",
		Short: "List the reviews of a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("map", args[0])
			if err != nil {
				return err
			}
			reviews, err := app.Reviews.ListByMap(app.View(), id)
			if err != nil {
				return err
			}
			return renderReviews(app, reviews)
		},
	}
}

func newReviewsMineCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the reviews you wrote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			reviews, err := app.Reviews.ListMine(app.View())
			if err != nil {
				return err
			}
			return renderReviews(app, reviews)
		},
	}
}

func newReviewsAddCommand(get func() *App) *cobra.Command {
	var input appreview.WriteInput
	cmd := &cobra.Command{
		Use:   "add MAP_ID",
		Short: "Rate and review a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("map", args[0])
			if err != nil {
				return err
			}
			input.MapID = id
			reviews, err := app.Reviews.Create(app.View(), input)
			if err != nil {
				return err
			}
			return renderReviews(app, reviews)
		},
	}
	cmd.Flags().IntVarP(&input.Rating, "rating", "r", 0, "stars from 1 to 5")
	cmd.Flags().StringVarP(&input.Content, "content", "c", "", "review text")
	_ = cmd.MarkFlagRequired("rating")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newReviewsEditCommand(get func() *App) *cobra.Command {
	var (
		rating  int
		content string
	)
	cmd := &cobra.Command{
		Use:   "edit REVIEW_ID",
		Short: "Change one of your reviews",
		Long:  "Change one of your reviews. Flags that are not given keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			ctx := app.View()
			r, err := ownedReview(ctx, app, args[0])
			if err != nil {
				return err
			}

			input := appreview.EditInput{ReviewID: r.ReviewID, MapID: r.MapID, Rating: r.Rating, Content: r.Content}
			if cmd.Flags().Changed("rating") {
				input.Rating = rating
			}
			if cmd.Flags().Changed("content") {
				input.Content = content
			}
			reviews, err := app.Reviews.Update(ctx, input)
			if err != nil {
				return err
			}
			return renderReviews(app, reviews)
		},
	}
	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "stars from 1 to 5")
	cmd.Flags().StringVarP(&content, "content", "c", "", "review text")
	cmd.MarkFlagsOneRequired("rating", "content")
	return cmd
}

func newReviewsDeleteCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REVIEW_ID",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			ctx := app.View()
			r, err := ownedReview(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Reviews.Delete(ctx, r.ReviewID); err != nil {
				return err
			}
			return app.Message(fmt.Sprintf("Review #%d deleted", r.ReviewID))
		},
	}
}

// ownedReview finds the review among the signed-in user's own, which is
// where the edit and delete controls are offered.
func ownedReview(ctx context.Context, app *App, arg string) (*review.Review, error) {
	id, err := parseID("review", arg)
	if err != nil {
		return nil, err
	}
	mine, err := app.Reviews.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	editable := appreview.Editable(mine, app.Sessions.CurrentUser())
	for i := range editable {
		if editable[i].ReviewID == id {
			return &editable[i], nil
		}
	}
	return nil, shared.ErrActionUnavailable
}

func renderReviews(app *App, reviews []review.Review) error {
	return app.Render(reviews, func(t *render.Table) {
		reviewRows(t, reviews)
	})
}

func reviewRows(t *render.Table, reviews []review.Review) {
	t.Row("ID", "MAP", "AUTHOR", "RATING", "CONTENT")
	for _, r := range reviews {
		mapName := r.MapName
		if mapName == "" {
			mapName = fmt.Sprintf("#%d", r.MapID)
		}
		t.Row(r.ReviewID, render.Truncate(mapName, 24), r.DisplayName(), review.StarsInt(r.Rating), render.Truncate(r.Content, 40))
	}
}
