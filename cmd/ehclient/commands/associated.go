package commands

import (
	"strings"

	"ehclient/internal/app"
	"ehclient/internal/associated"
	"ehclient/lib/gallery"
	"ehclient/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tagCmd)
}

func parseKeyword(arg string) gallery.AssociatedKeyword {
	namespace, content, ok := strings.Cut(arg, ":")
	if !ok {
		return gallery.AssociatedKeyword{Content: arg}
	}
	return gallery.AssociatedKeyword{Category: namespace, Content: content}
}

var tagCmd = &cobra.Command{
	Use:   "tag <namespace:tag>...",
	Short: "Follows a chain of tags, printing the galleries of the last one.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context())
		defer s.Close()

		var state app.State
		for depth, arg := range args {
			state = s.dispatch(app.Associated{Action: associated.FetchGalleries{
				Depth:   depth,
				Keyword: parseKeyword(arg),
			}})
			level, ok := state.Associated.Level(depth)
			if !ok {
				serviceutil.Fatal("too many tags", errTooDeep(state.Associated.MaxDepth))
			}
			if level.List.Err != nil {
				serviceutil.Fatal("failed to fetch "+arg, level.List.Err)
			}
		}

		level, _ := state.Associated.Level(len(args) - 1)
		renderGalleries(level.List.Galleries)
	},
}
