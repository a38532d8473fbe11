package commands

import (
	"fmt"
	"slices"
	"strings"

	"ehclient/internal/app"
	"ehclient/internal/setting"
	"ehclient/lib/gallery"
	"ehclient/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(translateCmd)
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Prints the account the config logs in with.",
	Run: func(cmd *cobra.Command, args []string) {
		s := loggedInSession(cmd)
		defer s.Close()

		// the session fetched the user info, funds and categories on load
		state := s.store.Snapshot()
		if state.Setting.UserInfoErr != nil {
			serviceutil.Fatal("failed to fetch user info", state.Setting.UserInfoErr)
		}
		if state.Setting.FundsErr != nil {
			serviceutil.Fatal("failed to fetch funds", state.Setting.FundsErr)
		}
		user := state.Setting.User

		t := newTable(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"Member ID", s.cookies.MemberID()},
			{"Name", user.DisplayName},
			{"Gallery host", state.Setting.Setting.GalleryHost},
			{"GP", user.GalleryPoints},
			{"Credits", user.Credits},
		})
		t.Render()

		indices := make([]int, 0, len(user.FavoriteCategories))
		for index := range user.FavoriteCategories {
			indices = append(indices, index)
		}
		slices.Sort(indices)
		categories := newTable(table.Row{"Favorites", "Name"})
		for _, index := range indices {
			categories.AppendRow(table.Row{index, user.FavoriteCategories[index]})
		}
		categories.Render()
	},
}

var hostCmd = &cobra.Command{
	Use:       "host [ehentai|exhentai]",
	Short:     "Prints or switches the gallery host following commands use.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"ehentai", "exhentai"},
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		if len(args) == 0 {
			fmt.Println(s.store.Snapshot().Setting.Setting.GalleryHost)
			return
		}

		var host gallery.GalleryHost
		switch strings.ToLower(args[0]) {
		case "ehentai", "e-hentai":
			host = gallery.HOST_EHENTAI
		case "exhentai":
			host = gallery.HOST_EXHENTAI
		default:
			serviceutil.Fatal("unknown host", fmt.Errorf("%q", args[0]))
		}
		state := s.dispatch(app.Setting{Action: setting.SetGalleryHost{Host: host}})
		fmt.Println(state.Setting.Setting.GalleryHost)
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate <tag>...",
	Short: "Translates tags with the tag translation database of the configured language.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		state := s.dispatch(app.Setting{Action: setting.SetTagsExtension{Enabled: true}})
		if state.Setting.TagTranslatorErr != nil {
			serviceutil.Fatal("failed to fetch translations", state.Setting.TagTranslatorErr)
		}
		translator := state.Setting.TagTranslator
		if translator.Language == "" {
			serviceutil.Fatal("no translations", errNoLanguage)
		}

		t := newTable(table.Row{"Tag", translator.Language})
		for _, tag := range args {
			t.AppendRow(table.Row{tag, translator.Translate(tag)})
		}
		t.Render()
	},
}
