package commands

import (
	"fmt"

	"ehclient/internal/app"
	"ehclient/internal/detail"
	"ehclient/internal/history"
	"ehclient/internal/setting"
	"ehclient/lib/gallery"
	"ehclient/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyClear *bool
	cacheClear   *bool
)

func init() {
	historyClear = historyCmd.Flags().Bool("clear", false, "Forget every opened gallery, reading progress is kept.")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(greetingCmd)
	cacheClear = cacheCmd.Flags().Bool("clear", false, "Empty the image cache.")
	rootCmd.AddCommand(cacheCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--clear]",
	Short: "Lists the galleries opened so far, most recent first.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		if *historyClear {
			s.dispatch(app.History{Action: history.ClearItems{}})
			return
		}
		state := s.dispatch(app.History{Action: history.FetchItems{}})
		if state.History.Err != nil {
			serviceutil.Fatal("failed to read history", state.History.Err)
		}

		t := newTable(table.Row{"GID", "Title", "Read", "Opened", "URL"})
		for _, item := range state.History.Items {
			read := ""
			if item.ReadingProgress > 0 {
				read = fmt.Sprintf("%d/%d", item.ReadingProgress, item.Gallery.PageCount)
			}
			t.AppendRow(table.Row{
				item.Gallery.GID,
				truncate(item.Gallery.Title, 60),
				read,
				item.LastOpenTime.Format("2006-01-02 15:04"),
				item.Gallery.DetailURL,
			})
		}
		t.Render()
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <gallery url> [page]",
	Short: "Prints or records the last page read of a gallery.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		gid, token, err := gallery.IdentityFromURL(args[0])
		if err != nil {
			serviceutil.Fatal("invalid gallery url", err)
		}
		g := dispatchGallery(s, gid, detail.Open{Gallery: gallery.Gallery{GID: gid, Token: token, DetailURL: args[0]}})
		if len(args) == 2 {
			page := parseInt("page", args[1])
			if page < 1 {
				serviceutil.Fatal("invalid page", fmt.Errorf("%d is not a page", page))
			}
			g = dispatchGallery(s, gid, detail.SaveReadingProgress{GID: gid, Page: page})
		}
		fmt.Println(g.ReadingProgress)
	},
}

var greetingCmd = &cobra.Command{
	Use:   "greeting",
	Short: "Collects the daily reward of the news page and prints the last one.",
	Run: func(cmd *cobra.Command, args []string) {
		s := loggedInSession(cmd)
		defer s.Close()

		// enabling the greeting fetches it when it is due
		state := s.dispatch(app.Setting{Action: setting.SetShowsNewDawnGreeting{Enabled: true}})
		greeting := state.Setting.User.Greeting
		if greeting == nil {
			fmt.Println("no greeting yet")
			return
		}
		if greeting.IsEmpty() {
			fmt.Printf("no reward on %s\n", greeting.UpdateTime.Format("2006-01-02"))
			return
		}

		t := newTable(table.Row{"EXP", "Credits", "GP", "Hath", "Received"})
		t.AppendRow(table.Row{
			greeting.GainedEXP,
			greeting.GainedCredits,
			greeting.GainedGP,
			greeting.GainedHath,
			greeting.UpdateTime.Format("2006-01-02 15:04"),
		})
		t.Render()
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache [--clear]",
	Short: "Prints the size of the image cache.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		action := setting.GeneralAction(setting.CalculateImageCacheSize{})
		if *cacheClear {
			action = setting.ClearImageCache{}
		}
		state := s.dispatch(app.Setting{Action: setting.General{Action: action}})
		fmt.Println(state.Setting.General.ImageCacheSize)
	},
}
