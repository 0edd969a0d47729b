package cli

import (
	"fmt"
	"strconv"
	"strings"

	appcollection "github.com/bobvengers/mapmate/internal/application/collection"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/domain/review"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/interfaces/cli/render"
	"github.com/spf13/cobra"
)

func newHomeCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "home",
		Short:   "Show the top rated and most reviewed maps",
		GroupID: "browse",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			home := app.Maps.Home(app.View())
			return app.Render(home, func(t *render.Table) {
				t.Row("TOP RATED")
				mapRows(t, home.TopRated)
				t.Blank()
				t.Row("MOST REVIEWED")
				mapRows(t, home.MostReviewed)
			})
		},
	}
}

func newMapsCommand(get func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maps",
		Short:   "Browse, create, and manage restaurant maps",
		GroupID: "browse",
	}
	cmd.AddCommand(
		newMapsListCommand(get),
		newMapsMineCommand(get),
		newMapsByUserCommand(get),
		newMapsByCreatorCommand(get),
		newMapsShowCommand(get),
		newMapsCreateCommand(get),
		newMapsRenameCommand(get),
		newMapsDeleteCommand(get),
	)
	return cmd
}

func newMapsListCommand(get func() *App) *cobra.Command {
	var keyword, sortBy string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search community maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			maps, err := app.Maps.List(app.View(), appcollection.ListFilter{Keyword: keyword, SortBy: parseSort(sortBy)})
			if err != nil {
				return err
			}
			return renderMaps(app, maps)
		},
	}
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "match map or restaurant names")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "order: rating, reviews, or none")
	return cmd
}

func newMapsMineCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			maps, err := app.Maps.ListMine(app.View())
			if err != nil {
				return err
			}
			return renderMaps(app, maps)
		},
	}
}

func newMapsByUserCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "by-user USER_ID",
		Short: "List the maps created by a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			maps, err := app.Maps.ListByUser(app.View(), id)
			if err != nil {
				return err
			}
			return renderMaps(app, maps)
		},
	}
}

func newMapsByCreatorCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "by-creator NICKNAME",
		Short: "List the maps created by a nickname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			maps, err := app.Maps.ListByCreator(app.View(), args[0])
			if err != nil {
				return err
			}
			return renderMaps(app, maps)
		},
	}
}

func newMapsShowCommand(get func() *App) *cobra.Command {
	var selected, next, prev int
	cmd := &cobra.Command{
		Use:   "show MAP_ID",
		Short: "Show a map with its restaurants and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("map", args[0])
			if err != nil {
				return err
			}
			detail, err := app.Maps.Detail(app.View(), id)
			if err != nil {
				return err
			}

			cursor := detail.Cursor()
			if selected > 0 {
				if _, ok := cursor.Select(selected - 1); !ok {
					return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Map %d has %d restaurants", id, cursor.Len()))
				}
			}
			for i := 0; i < next; i++ {
				cursor.Next()
			}
			for i := 0; i < prev; i++ {
				cursor.Prev()
			}
			m := detail.Map
			return app.Render(detail, func(t *render.Table) {
				t.Row("MAP", fmt.Sprintf("#%d %s", m.ID, m.Name))
				t.Row("CREATOR", m.Nickname)
				t.Row("RATING", review.Stars(m.AverageRating))
				t.Row("REVIEWS", m.ReviewCount)
				if r, ok := cursor.Current(); ok {
					t.Row("SELECTED", r.Name)
				}
				t.Blank()
				t.Row("", "#", "RESTAURANT", "ADDRESS", "LOCATION")
				for i, r := range m.Restaurants {
					marker := ""
					if i == cursor.Index() {
						marker = ">"
					}
					t.Row(marker, i+1, r.Name, r.Address, location(r))
				}
				t.Blank()
				reviewRows(t, detail.Reviews)
			})
		},
	}
	cmd.Flags().IntVarP(&selected, "restaurant", "r", 0, "highlight the n-th restaurant")
	cmd.Flags().IntVar(&next, "next", 0, "step forward n restaurants from the selection, wrapping at the end")
	cmd.Flags().IntVar(&prev, "prev", 0, "step back n restaurants from the selection, wrapping at the start")
	cmd.MarkFlagsMutuallyExclusive("next", "prev")
	return cmd
}

func newMapsCreateCommand(get func() *App) *cobra.Command {
	var (
		name        string
		restaurants []string
		search      string
		pick        []int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new map of restaurants",
		Example: `  mapmate maps create --name "강남 맛집" --restaurant "을지면옥@서울 중구 충무로14길 2-1"
  mapmate maps create --name "Gangnam Favorites" --search "강남 파스타" --pick 1,3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := get()
			ctx := app.View()

			infos := make([]collection.RestaurantInfo, 0, len(restaurants)+len(pick))
			for _, raw := range restaurants {
				info, err := parseRestaurant(raw)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}
			if search != "" {
				places, err := app.Places()
				if err != nil {
					return err
				}
				hits, err := places.Search(ctx, search)
				if err != nil {
					return err
				}
				for _, n := range pick {
					if n < 1 || n > len(hits) {
						return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Search returned %d places; cannot pick %d", len(hits), n))
					}
					infos = append(infos, hits[n-1].RestaurantInfo())
				}
			}

			if err := app.Maps.Create(ctx, appcollection.CreateMapInput{Name: name, Restaurants: infos}); err != nil {
				return err
			}
			return app.Message(fmt.Sprintf("Map %q saved", strings.TrimSpace(name)))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "map name")
	cmd.Flags().StringArrayVar(&restaurants, "restaurant", nil, `restaurant as "NAME@ADDRESS" (repeatable)`)
	cmd.Flags().StringVar(&search, "search", "", "search places by keyword")
	cmd.Flags().IntSliceVar(&pick, "pick", []int{1}, "search results to add, 1-based")
	return cmd
}

func newMapsRenameCommand(get func() *App) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "rename MAP_ID",
		Short: "Rename one of your maps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("map", args[0])
			if err != nil {
				return err
			}
			if err := app.Maps.Rename(app.View(), id, name); err != nil {
				return err
			}
			return app.Message(fmt.Sprintf("Map #%d renamed to %q", id, strings.TrimSpace(name)))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new map name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMapsDeleteCommand(get func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete MAP_ID",
		Short: "Delete one of your maps and its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := get()
			id, err := parseID("map", args[0])
			if err != nil {
				return err
			}
			if err := app.Maps.Delete(app.View(), id); err != nil {
				return err
			}
			return app.Message(fmt.Sprintf("Map #%d deleted", id))
		},
	}
}

func renderMaps(app *App, maps []collection.MapCollection) error {
	return app.Render(maps, func(t *render.Table) {
		mapRows(t, maps)
	})
}

func mapRows(t *render.Table, maps []collection.MapCollection) {
	t.Row("ID", "NAME", "CREATOR", "RATING", "REVIEWS", "RESTAURANTS")
	for _, m := range maps {
		t.Row(m.ID, render.Truncate(m.Name, 30), m.Nickname, review.Stars(m.AverageRating), m.ReviewCount, len(m.Restaurants))
	}
}

func parseSort(s string) collection.SortBy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return collection.SortByNone
	case "rating", "averagerating":
		return collection.SortByAverageRating
	case "reviews", "reviewcount":
		return collection.SortByReviewCount
	}
	// left for MapService.List to reject
	return collection.SortBy(s)
}

// parseRestaurant splits "NAME@ADDRESS" at the first @
func parseRestaurant(raw string) (collection.RestaurantInfo, error) {
	name, address, ok := strings.Cut(raw, "@")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(address) == "" {
		return collection.RestaurantInfo{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Restaurant %q must look like NAME@ADDRESS", raw))
	}
	return collection.RestaurantInfo{Name: strings.TrimSpace(name), Address: strings.TrimSpace(address)}, nil
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid %s id %q", kind, s))
	}
	return id, nil
}

func location(r collection.Restaurant) string {
	if !r.HasLocation() {
		return "-"
	}
	return fmt.Sprintf("%.5f, %.5f", r.Latitude, r.Longitude)
}
