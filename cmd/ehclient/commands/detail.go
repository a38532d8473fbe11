package commands

import (
	"fmt"

	"ehclient/internal/app"
	"ehclient/internal/detail"
	"ehclient/lib/apperr"
	"ehclient/lib/gallery"
	"ehclient/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	detailComments *bool
	detailTorrents *bool
	contentsPage   *int
	contentsAll    *bool
	archiveRes     *string
)

func init() {
	detailComments = detailCmd.Flags().Bool("comments", false, "Also print the comments.")
	detailTorrents = detailCmd.Flags().Bool("torrents", false, "Also print the torrents.")
	rootCmd.AddCommand(detailCmd)

	contentsPage = contentsCmd.Flags().Int("page", 1, "The detail page to read image urls from, 1-based.")
	contentsAll = contentsCmd.Flags().Bool("all", false, "Read every detail page.")
	rootCmd.AddCommand(contentsCmd)

	archiveRes = archiveCmd.Flags().String("download", "", "Send the archive to your H@H client at this resolution.")
	rootCmd.AddCommand(archiveCmd)
}

// openGallery registers the gallery behind detailURL and fetches its detail
// page.
func openGallery(s *session, detailURL string) (string, detail.Gallery) {
	gid, token, err := gallery.IdentityFromURL(detailURL)
	if err != nil {
		serviceutil.Fatal("invalid gallery url", err)
	}
	s.dispatch(app.Detail{Action: detail.Open{Gallery: gallery.Gallery{
		GID:       gid,
		Token:     token,
		DetailURL: detailURL,
	}}})
	state := s.dispatch(app.Detail{Action: detail.FetchDetail{GID: gid}})
	g, _ := state.Detail.Gallery(gid)
	if g.DetailErr != nil {
		serviceutil.Fatal("failed to fetch gallery detail", g.DetailErr)
	}
	return gid, g
}

func dispatchGallery(s *session, gid string, action detail.Action) detail.Gallery {
	state := s.dispatch(app.Detail{Action: action})
	g, _ := state.Detail.Gallery(gid)
	return g
}

func failOn(message string, err *apperr.Error) {
	if err != nil {
		serviceutil.Fatal(message, err)
	}
}

var detailCmd = &cobra.Command{
	Use:   "detail <gallery url> [--comments] [--torrents]",
	Short: "Prints the detail page of a gallery.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		gid, g := openGallery(s, args[0])
		renderDetail(*g.Detail)

		if *detailComments {
			g = dispatchGallery(s, gid, detail.FetchComments{GID: gid})
			failOn("failed to fetch comments", g.CommentsErr)
			renderComments(g.Comments)
		}
		if *detailTorrents {
			g = dispatchGallery(s, gid, detail.FetchTorrents{GID: gid})
			failOn("failed to fetch torrents", g.TorrentsErr)
			renderTorrents(g.Torrents)
		}
	},
}

var contentsCmd = &cobra.Command{
	Use:   "contents <gallery url> [--page <n> | --all]",
	Short: "Prints the image urls of a gallery and remembers them.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		gid, g := openGallery(s, args[0])
		if !*contentsAll {
			page := *contentsPage - 1
			g = dispatchGallery(s, gid, detail.FetchContents{GID: gid, Page: page})
			failOn(fmt.Sprintf("failed to fetch page %d", page+1), g.ContentsErr)
			renderContents(g.Contents)
			return
		}
		for page := 0; len(g.Contents) < g.PageCount(); page++ {
			before := len(g.Contents)
			g = dispatchGallery(s, gid, detail.FetchContents{GID: gid, Page: page})
			failOn(fmt.Sprintf("failed to fetch page %d", page+1), g.ContentsErr)
			if len(g.Contents) == before {
				break
			}
		}
		renderContents(g.Contents)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <gallery url> [--download <resolution>]",
	Short: "Prints the archive options of a gallery, or sends one to H@H.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var resolution gallery.ArchiveResolution
		if *archiveRes != "" {
			var ok bool
			resolution, ok = gallery.ParseResolution(*archiveRes)
			if !ok {
				serviceutil.Fatal("unknown resolution", fmt.Errorf("%q, expected one of %v", *archiveRes, gallery.Resolutions))
			}
		}

		s := openSession(cmd.Context())
		defer s.Close()
		if !s.cookies.DidLogin() {
			serviceutil.Fatal("archives need an account", errNotLoggedIn)
		}

		gid, _ := openGallery(s, args[0])
		g := dispatchGallery(s, gid, detail.FetchArchive{GID: gid})
		failOn("failed to fetch archive", g.ArchiveErr)
		if g.Funds == nil {
			g = dispatchGallery(s, gid, detail.FetchArchiveFunds{GID: gid})
			failOn("failed to fetch funds", g.FundsErr)
		}
		renderArchive(*g.Archive, g.Funds)

		if resolution == "" {
			return
		}
		g = dispatchGallery(s, gid, detail.SendDownloadCommand{GID: gid, Resolution: resolution})
		failOn("failed to send download command", g.DownloadCommandErr)
		if g.DownloadCommandResponse != nil {
			fmt.Println(g.DownloadCommandResponse.String())
		}
	},
}
