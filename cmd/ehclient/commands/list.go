package commands

import (
	"fmt"

	"ehclient/internal/app"
	"ehclient/internal/home"
	"ehclient/internal/listing"
	"ehclient/internal/search"
	"ehclient/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	listPages     *int
	listFavorites *int
	searchPages   *int
)

func init() {
	listPages = listCmd.Flags().Int("pages", 1, "The number of pages to fetch.")
	listFavorites = listCmd.Flags().Int("index", -1, "The favorites category, -1 for all of them.")
	rootCmd.AddCommand(listCmd)

	searchPages = searchCmd.Flags().Int("pages", 1, "The number of pages to fetch.")
	rootCmd.AddCommand(searchCmd)
}

// homeList wraps a listing action for one of the home lists, ok is false for
// an unknown name.
func homeList(name string, favoritesIndex int) (wrap func(listing.Action) app.Action, read func(app.State) listing.State, ok bool) {
	switch name {
	case "frontpage":
		return func(a listing.Action) app.Action { return app.Home{Action: home.Frontpage{Action: a}} },
			func(s app.State) listing.State { return s.Home.Frontpage }, true
	case "popular":
		return func(a listing.Action) app.Action { return app.Home{Action: home.Popular{Action: a}} },
			func(s app.State) listing.State { return s.Home.Popular }, true
	case "watched":
		return func(a listing.Action) app.Action { return app.Home{Action: home.Watched{Action: a}} },
			func(s app.State) listing.State { return s.Home.Watched }, true
	case "favorites":
		return func(a listing.Action) app.Action {
				return app.Home{Action: home.Favorites{Index: favoritesIndex, Action: a}}
			},
			func(s app.State) listing.State {
				list, _ := s.Home.Favorites(favoritesIndex)
				return *list
			}, true
	}
	return nil, nil, false
}

// fetchPages loads the first page of a list with first and follows the
// cursor until pages have been read or the list ends.
func fetchPages(s *session, first app.Action, pages int, wrap func(listing.Action) app.Action, read func(app.State) listing.State) listing.State {
	list := read(s.dispatch(first))
	if list.Err != nil {
		serviceutil.Fatal("failed to fetch list", list.Err)
	}
	for page := 1; page < pages && list.HasMore(); page++ {
		list = read(s.dispatch(wrap(listing.FetchMoreGalleries{})))
		if list.FooterErr != nil {
			serviceutil.Fatal(fmt.Sprintf("failed to fetch page %d", page+1), list.FooterErr)
		}
	}
	return list
}

var listCmd = &cobra.Command{
	Use:       "list <frontpage|popular|watched|favorites> [--pages <n>] [--index <category>]",
	Short:     "Lists the galleries of one of the home lists.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"frontpage", "popular", "watched", "favorites"},
	Run: func(cmd *cobra.Command, args []string) {
		wrap, read, ok := homeList(args[0], *listFavorites)
		if !ok {
			serviceutil.Fatal("unknown list", fmt.Errorf("%q", args[0]))
		}
		if args[0] == "favorites" {
			homeState := home.New()
			if _, valid := homeState.Favorites(*listFavorites); !valid {
				serviceutil.Fatal("unknown favorites category", fmt.Errorf("%d", *listFavorites))
			}
		}

		s := openSession(cmd.Context())
		defer s.Close()

		list := fetchPages(s, wrap(listing.FetchGalleries{}), *listPages, wrap, read)
		renderGalleries(list.Galleries)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword> [--pages <n>]",
	Short: "Searches galleries by keyword.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		list := fetchPages(
			s,
			app.Search{Action: search.FetchGalleries{Keyword: args[0]}},
			*searchPages,
			func(a listing.Action) app.Action { return app.Search{Action: search.List{Action: a}} },
			func(st app.State) listing.State { return st.Search.List },
		)
		renderGalleries(list.Galleries)
	},
}
