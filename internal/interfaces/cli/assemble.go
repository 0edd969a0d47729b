package cli

import (
	"context"
	"fmt"
	"strings"

	appassemble "github.com/bobvengers/mapmate/internal/application/assemble"
	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"github.com/spf13/cobra"
)

func newAssembleCommand(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assemble",
		Aliases: []string{"meetups"},
		Short:   "Host and join dining meetups",
		GroupID: "meetups",
	}
	cmd.AddCommand(
		newAssembleBoardCommand(get),
		newAssembleShowCommand(get),
		newAssembleCreateCommand(get),
		newPostActionCommand(get, "apply", "Ask to join a meetup", func(ctx context.Context, app *App, post *assemble.Post) (string, error) {
			if err := app.Assemble.Apply(ctx, post); err != nil {
				return "", err
			}
			return fmt.Sprintf("Applied to #%d %s", post.ID, post.Title), nil
		}),
		newPostActionCommand(get, "close", "Stop recruiting for your meetup", func(ctx context.Context, app *App, post *assemble.Post) (string, error) {
			closed, err := app.Assemble.ClosePost(ctx, post)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("#%d %s is now %s", closed.ID, closed.Title, closed.Status), nil
		}),
		newPostActionCommand(get, "delete", "Delete your meetup with its requests and comments", func(ctx context.Context, app *App, post *assemble.Post) (string, error) {
			if err := app.Assemble.DeletePost(ctx, post); err != nil {
				return "", err
			}
			return fmt.Sprintf("Meetup #%d deleted", post.ID), nil
		}),
		newAssembleCommentCommand(get),
		newAssembleRequestsCommand(get),
		newApplicationActionCommand(get, "accept", "Accept a join request", func(ctx context.Context, app *App, a *assemble.Application) error {
			return app.Assemble.Accept(ctx, a)
		}),
		newApplicationActionCommand(get, "reject", "Reject a join request", func(ctx context.Context, app *App, a *assemble.Application) error {
			return app.Assemble.Reject(ctx, a)
		}),
		newApplicationActionCommand(get, "cancel", "Withdraw or remove a request that was not accepted", func(ctx context.Context, app *App, a *assemble.Application) error {
			return app.Assemble.CancelApplication(ctx, a)
		}),
	)
	return cmd
}

func newAssembleBoardCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "List meetups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			posts, err := app.Assemble.Board(app.View())
			if err != nil {
				return err
			}
			return app.Render(posts, func(t *render.Table) {
				t.Row("ID", "TITLE", "WHEN", "RESTAURANT", "HOST", "STATUS")
				for _, p := range posts {
					t.Row(p.ID, render.Truncate(p.Title, 30), p.MeetingTime, p.RestaurantName, p.SenderName, p.Status)
				}
			})
		},
	}
}

func newAssembleShowCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show POST_ID",
		Short: "Show a meetup, its comments, and what you can do with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("meetup", args[0])
			if err != nil {
				return err
			}
			detail, err := app.Assemble.Detail(app.View(), id)
			if err != nil {
				return err
			}
			return app.Render(detail, func(t *render.Table) {
				postRows(t, &detail.Post)
				t.Row("ACTIONS", actionList(detail.Actions))
				t.Blank()
				commentRows(t, detail.Comments)
			})
		},
	}
}

func newAssembleCreateCommand(get func() *App) *cobra.Command {
	var (
		input  appassemble.CreatePostInput
		search string
		pick   int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Host a meetup at a restaurant",
		Example: `  mapmate assemble create --title "을지로 노포 투어" --time "토요일 저녁 7시" --place "을지면옥@서울 중구 충무로14길 2-1"
  mapmate assemble create --title "Friday ramen" --time "Fri 19:00" --search "홍대 라멘" --pick 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			ctx := app.View()

			if place, _ := cmd.Flags().GetString("place"); place != "" {
				info, err := parseRestaurant(place)
				if err != nil {
					return err
				}
				input.Place = assemble.Place{Name: info.Name, Address: info.Address}
			} else if search != "" {
				places, err := app.Places()
				if err != nil {
					return err
				}
				hits, err := places.Search(ctx, search)
				if err != nil {
					return err
				}
				if pick < 1 || pick > len(hits) {
					return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Search returned %d places; cannot pick %d", len(hits), pick))
				}
				input.Place = hits[pick-1].AssemblePlace()
			}

			msg, err := app.Assemble.CreatePost(ctx, input)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "Meetup posted"
			}
			return app.Message(msg)
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "meetup title")
	cmd.Flags().StringVar(&input.MeetingTime, "time", "", "when to meet, free text")
	cmd.Flags().String("place", "", `restaurant as "NAME@ADDRESS"`)
	cmd.Flags().StringVar(&search, "search", "", "search places by keyword")
	cmd.Flags().IntVar(&pick, "pick", 1, "search result to use, 1-based")
	cmd.MarkFlagsMutuallyExclusive("place", "search")
	cmd.MarkFlagsOneRequired("place", "search")
	return cmd
}

// newPostActionCommand builds a command that loads a post and applies one
// gated action to it.
func newPostActionCommand(get func() *App, use, short string, act func(context.Context, *App, *assemble.Post) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " POST_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			ctx := app.View()
			post, err := loadPost(ctx, app, args[0])
			if err != nil {
				return err
			}
			msg, err := act(ctx, app, post)
			if err != nil {
				return err
			}
			return app.Message(msg)
		},
	}
}

func newAssembleCommentCommand(get func() *App) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "comment POST_ID",
		Short: "Write on a meetup's comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			ctx := app.View()
			post, err := loadPost(ctx, app, args[0])
			if err != nil {
				return err
			}
			comments, err := app.Assemble.PostComment(ctx, post, message)
			if err != nil {
				return err
			}
			return app.Render(comments, func(t *render.Table) {
				commentRows(t, comments)
			})
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "comment text")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newAssembleRequestsCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "Show join requests you received and sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			inbox, err := app.Assemble.Inbox(app.View())
			if err != nil {
				return err
			}
			user := app.Sessions.CurrentUser()
			return app.Render(inbox, func(t *render.Table) {
				t.Row("RECEIVED")
				t.Row("ID", "MEETUP", "FROM", "STATUS", "ACTIONS")
				for i := range inbox.Received {
					a := &inbox.Received[i]
					t.Row(a.ID, render.Truncate(a.Title, 30), a.SenderName, a.Status, actionList(assemble.AllowedActions(nil, a, user).List()))
				}
				t.Blank()
				t.Row("SENT")
				t.Row("ID", "MEETUP", "HOST", "STATUS", "ACTIONS")
				for i := range inbox.Sent {
					a := &inbox.Sent[i]
					t.Row(a.ID, render.Truncate(a.Title, 30), a.ReceiverName, a.Status, actionList(assemble.AllowedActions(nil, a, user).List()))
				}
			})
		},
	}
}

// newApplicationActionCommand builds a command that finds an application in
// the signed-in user's inbox and applies one gated action to it.
func newApplicationActionCommand(get func() *App, use, short string, act func(context.Context, *App, *assemble.Application) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " REQUEST_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			ctx := app.View()
			id, err := parseID("request", args[0])
			if err != nil {
				return err
			}
			inbox, err := app.Assemble.Inbox(ctx)
			if err != nil {
				return err
			}
			a, ok := inbox.Find(id)
			if !ok {
				return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Request #%d is not in your inbox", id))
			}
			if err := act(ctx, app, a); err != nil {
				return err
			}
			return app.Message(fmt.Sprintf("Request #%d: %s done", id, use))
		},
	}
}

func loadPost(ctx context.Context, app *App, arg string) (*assemble.Post, error) {
	id, err := parseID("meetup", arg)
	if err != nil {
		return nil, err
	}
	return app.Assemble.Get(ctx, id)
}

func postRows(t *render.Table, p *assemble.Post) {
	t.Row("MEETUP", fmt.Sprintf("#%d %s", p.ID, p.Title))
	t.Row("WHEN", p.MeetingTime)
	t.Row("RESTAURANT", p.RestaurantName)
	if p.Address != "" {
		t.Row("ADDRESS", p.Address)
	}
	if p.HasLocation() {
		t.Row("LOCATION", fmt.Sprintf("%.6f, %.6f", p.Latitude, p.Longitude))
	}
	t.Row("HOST", p.SenderName)
	t.Row("STATUS", p.Status)
}

func commentRows(t *render.Table, comments []assemble.Comment) {
	t.Row("AUTHOR", "COMMENT")
	for _, c := range comments {
		t.Row(c.Nickname, c.Content)
	}
}

func actionList(actions []assemble.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
