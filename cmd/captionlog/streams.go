package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

// streamFlags are shared by every stream command.
type streamFlags struct {
	viewerID int64
	limit    int
	offset   int
	cursor   string
	locale   string
}

func (f *streamFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.viewerID, "viewer", 0, "User reading the stream (0 for anonymous)")
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "Page size (default from config)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "Records to skip")
	cmd.Flags().StringVar(&f.cursor, "cursor", "", "Continue after a previous page's cursor")
	cmd.Flags().StringVar(&f.locale, "locale", "", "Locale messages are rendered in")
}

func (f *streamFlags) page() activity.PageOptions {
	return activity.PageOptions{Limit: f.limit, Offset: f.offset, Cursor: f.cursor}
}

func newFeedCmd() *cobra.Command {
	var flags streamFlags

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show a viewer's dashboard feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.viewerID == 0 {
				return errors.New("--viewer is required")
			}
			return runStream(cmd, &flags, func(ctx context.Context, d *deps, viewer *platform.User) (*activity.Page, error) {
				return d.streams.FeedForViewer(ctx, viewer, flags.page())
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func newTeamCmd() *cobra.Command {
	var (
		flags    streamFlags
		stream   string
		kind     string
		lang     string
		videoLng string
		sortBy   string
	)

	cmd := &cobra.Command{
		Use:   "team <team-id|slug>",
		Short: "Show a team's video or membership activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := activity.TeamFilter{
				Type:              activity.Kind(kind),
				LanguageCode:      lang,
				VideoLanguageCode: videoLng,
				Sort:              sortBy,
			}
			return runStream(cmd, &flags, func(ctx context.Context, d *deps, viewer *platform.User) (*activity.Page, error) {
				teamID, err := resolveTeam(ctx, d, args[0])
				if err != nil {
					return nil, err
				}
				return d.streams.ForTeam(ctx, teamID, viewer, activity.StreamKind(stream), filter, flags.page())
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&stream, "stream", string(activity.StreamVideo), "Stream: video or team")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "Only records of this type")
	cmd.Flags().StringVar(&lang, "lang", "", "Only records for this subtitle language")
	cmd.Flags().StringVar(&videoLng, "video-lang", "", "Only records for videos in this audio language")
	cmd.Flags().StringVar(&sortBy, "sort", activity.SortNewest, "Order: -created or created")

	return cmd
}

func newVideoCmd() *cobra.Command {
	var (
		flags  streamFlags
		teamID int64
	)

	cmd := &cobra.Command{
		Use:   "video <video-id>",
		Short: "Show a video's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var team *int64
			if cmd.Flags().Changed("team") {
				team = &teamID
			}
			return runStream(cmd, &flags, func(ctx context.Context, d *deps, viewer *platform.User) (*activity.Page, error) {
				return d.streams.ForVideo(ctx, videoID, viewer, team, flags.page())
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&teamID, "team", 0, "Show the video as this team sees it")

	return cmd
}

func newUserCmd() *cobra.Command {
	var flags streamFlags

	cmd := &cobra.Command{
		Use:   "user <user-id>",
		Short: "Show what a user has done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runStream(cmd, &flags, func(ctx context.Context, d *deps, viewer *platform.User) (*activity.Page, error) {
				return d.streams.ForUser(ctx, userID, viewer, flags.page())
			})
		},
	}
	flags.register(cmd)

	return cmd
}

type streamFunc func(ctx context.Context, d *deps, viewer *platform.User) (*activity.Page, error)

func runStream(cmd *cobra.Command, flags *streamFlags, fetch streamFunc) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		viewer, err := loadViewer(ctx, d, flags.viewerID)
		if err != nil {
			return err
		}
		page, err := fetch(ctx, d, viewer)
		if err != nil {
			return fmt.Errorf("reading stream: %w", err)
		}
		displayPage(ctx, cmd.OutOrStdout(), d.renderer, page, viewer, flags.locale)
		return nil
	})
}

func loadViewer(ctx context.Context, d *deps, id int64) (*platform.User, error) {
	if id == 0 {
		return nil, nil
	}
	viewer, err := d.dir.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("viewer %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading viewer: %w", err)
	}
	return viewer, nil
}

func displayPage(ctx context.Context, w io.Writer, r *activity.Renderer, page *activity.Page, viewer *platform.User, locale string) {
	if len(page.Records) == 0 {
		fmt.Fprintln(w, "No activity found.")
		return
	}
	for i := range page.Records {
		rec := &page.Records[i]
		marker := ""
		if rec.IsCopy() {
			marker = " (copy)"
		}
		fmt.Fprintf(w, "%s  %-28s %s%s\n",
			rec.Created.Local().Format(time.DateTime), rec.Type, r.RenderText(ctx, rec, viewer, locale), marker)
	}
	if page.NextCursor != "" {
		fmt.Fprintf(w, "\nMore: --cursor %s\n", page.NextCursor)
	}
}

// resolveTeam accepts a numeric team id or a team slug.
func resolveTeam(ctx context.Context, d *deps, arg string) (int64, error) {
	if id, err := parseID(arg); err == nil {
		return id, nil
	}
	team, err := d.dir.GetTeamBySlug(ctx, arg)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("team %q not found", arg)
	}
	if err != nil {
		return 0, fmt.Errorf("loading team: %w", err)
	}
	return team.ID, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
