package commands

import (
	"fmt"
	"strconv"

	"ehclient/internal/detail"
	"ehclient/internal/home"
	"ehclient/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	favoriteDelete *bool
	commentEdit    *string
	voteDown       *bool
)

func init() {
	favoriteDelete = favoriteCmd.Flags().Bool("delete", false, "Remove the gallery from favorites instead.")
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(rateCmd)
	commentEdit = commentCmd.Flags().String("edit", "", "The id of one of your comments to replace.")
	rootCmd.AddCommand(commentCmd)
	voteDown = voteCmd.Flags().Bool("down", false, "Vote the comment down.")
	rootCmd.AddCommand(voteCmd)
}

// loggedInSession opens a session that fails early without an account.
func loggedInSession(cmd *cobra.Command) *session {
	s := openSession(cmd.Context())
	if !s.cookies.DidLogin() {
		s.Close()
		serviceutil.Fatal("this command needs an account", errNotLoggedIn)
	}
	return s
}

func parseInt(name, arg string) int {
	value, err := strconv.Atoi(arg)
	if err != nil {
		serviceutil.Fatal("invalid "+name, err)
	}
	return value
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <gallery url> [<category>] [--delete]",
	Short: "Adds a gallery to a favorites category, or removes it.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		category := 0
		if len(args) == 2 {
			category = parseInt("category", args[1])
		}
		if category < 0 || category >= home.FAVORITES_COUNT {
			serviceutil.Fatal("invalid category", fmt.Errorf("%d is not in [0, %d)", category, home.FAVORITES_COUNT))
		}

		s := loggedInSession(cmd)
		defer s.Close()

		gid, _ := openGallery(s, args[0])
		var action detail.Action = detail.AddFavorite{GID: gid, FavIndex: category}
		if *favoriteDelete {
			action = detail.DeleteFavorite{GID: gid}
		}
		g := dispatchGallery(s, gid, action)
		failOn("failed to update favorites", g.FavoriteErr)
		fmt.Printf("favorited: %t\n", g.Detail.IsFavorited)
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <gallery url> <rating>",
	Short: "Rates a gallery, rating is 1 to 10 half stars.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rating := parseInt("rating", args[1])
		if rating < 1 || rating > 10 {
			serviceutil.Fatal("invalid rating", fmt.Errorf("%d is not in [1, 10]", rating))
		}

		s := loggedInSession(cmd)
		defer s.Close()

		gid, _ := openGallery(s, args[0])
		g := dispatchGallery(s, gid, detail.Rate{GID: gid, Rating: rating})
		failOn("failed to rate", g.RateErr)
		g = dispatchGallery(s, gid, detail.FetchDetail{GID: gid})
		failOn("failed to refresh detail", g.DetailErr)
		fmt.Printf("rating: %.2f (%d)\n", g.Detail.Rating, g.Detail.RatingCount)
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <gallery url> <text> [--edit <comment id>]",
	Short: "Posts a comment on a gallery, or edits one of yours.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		s := loggedInSession(cmd)
		defer s.Close()

		gid, _ := openGallery(s, args[0])
		var action detail.Action = detail.Comment{GID: gid, Content: args[1]}
		if *commentEdit != "" {
			action = detail.EditComment{GID: gid, CommentID: *commentEdit, Content: args[1]}
		}
		g := dispatchGallery(s, gid, action)
		failOn("failed to comment", g.CommentErr)
		renderComments(g.Comments)
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <gallery url> <comment id> [--down]",
	Short: "Votes a comment up or down, voting twice withdraws the vote.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		vote := 1
		if *voteDown {
			vote = -1
		}

		s := loggedInSession(cmd)
		defer s.Close()

		gid, _ := openGallery(s, args[0])
		g := dispatchGallery(s, gid, detail.VoteComment{GID: gid, CommentID: args[1], Vote: vote})
		failOn("failed to vote", g.CommentErr)
		renderComments(g.Comments)
	},
}
