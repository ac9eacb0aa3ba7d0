package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rushteam/nextplay/core"
	"github.com/rushteam/nextplay/popularity"
)

var (
	topN       int
	asJSON     bool
	outputPath string
)

// listFlags 由所有输出列表的命令共享。
func listFlags(withTop bool) *pflag.FlagSet {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	if withTop {
		fs.IntVarP(&topN, "top", "n", 0, "number of items to return (default recommend.top_n)")
	}
	return fs
}

func init() {
	for _, c := range []*cobra.Command{recommendCommand, contentCommand, collabCommand, similarCommand, popularCommand} {
		c.Flags().AddFlagSet(listFlags(true))
	}
	gamesCommand.Flags().AddFlagSet(listFlags(false))
	gamesCommand.Flags().Bool("liked", false, "only games rated at or above the like threshold")
	gamesCommand.Flags().Float64("threshold", 0, "like threshold for --liked (default recommend.like_threshold)")
	datasetCommand.Flags().StringVarP(&outputPath, "output", "o", "training_data.csv", "output CSV file, - for stdout")
}

// withApp 打开存储与引擎，执行 fn 后释放资源。
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// resolveTopN 未指定 --top 时使用配置的默认条数；显式的负数交给引擎报 INVALID_INPUT。
func resolveTopN(cmd *cobra.Command, a *app) int {
	if !cmd.Flags().Changed("top") {
		return a.engine.Config().DefaultTopN()
	}
	return topN
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

var recommendCommand = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Recommend games for a user",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		res, err := a.engine.Recommend(cmd.Context(), args[0], resolveTopN(cmd, a))
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		if res.Degraded {
			fmt.Fprintln(cmd.ErrOrStderr(), "fusion model unavailable, ranked by popularity")
		}
		rows := make([][]string, 0, len(res.Items))
		for i, it := range res.Items {
			rows = append(rows, []string{strconv.Itoa(i + 1), strconv.FormatInt(it.ItemID, 10), it.Name, formatScore(it.LikeProbability)})
		}
		return printTable(cmd.OutOrStdout(), []string{"#", "id", "name", "like probability"}, rows)
	}),
}

var contentCommand = &cobra.Command{
	Use:   "recommend-content <user-id>",
	Short: "Recommend games by content similarity to the games a user liked",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		items, err := a.engine.ContentForUser(cmd.Context(), args[0], resolveTopN(cmd, a))
		if err != nil {
			return err
		}
		return printRecalled(cmd, items, "similarity")
	}),
}

var collabCommand = &cobra.Command{
	Use:   "recommend-collab <user-id>",
	Short: "Recommend games liked by the most similar users",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		items, err := a.engine.CollabForUser(cmd.Context(), args[0], resolveTopN(cmd, a))
		if err != nil {
			return err
		}
		return printRecalled(cmd, items, "neighbours")
	}),
}

func printRecalled(cmd *cobra.Command, items []core.RecalledItem, scoreHeader string) error {
	if asJSON {
		return printJSON(cmd.OutOrStdout(), items)
	}
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{strconv.Itoa(i + 1), strconv.FormatInt(it.ItemID, 10), it.Name, formatScore(it.Score)})
	}
	return printTable(cmd.OutOrStdout(), []string{"#", "id", "name", scoreHeader}, rows)
}

var similarCommand = &cobra.Command{
	Use:   "similar <game-name>",
	Short: "List games with similar content",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		names, err := a.engine.ContentSimilar(cmd.Context(), args[0], resolveTopN(cmd, a))
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), names)
		}
		rows := make([][]string, 0, len(names))
		for i, n := range names {
			rows = append(rows, []string{strconv.Itoa(i + 1), n})
		}
		return printTable(cmd.OutOrStdout(), []string{"#", "name"}, rows)
	}),
}

var popularCommand = &cobra.Command{
	Use:   "popular [user-id]",
	Short: "List the most popular games a user has not rated",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		var userID string
		if len(args) == 1 {
			userID = args[0]
		}
		items, err := a.engine.PopularityOnly(cmd.Context(), userID, resolveTopN(cmd, a))
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), items)
		}
		rows := make([][]string, 0, len(items))
		for i, it := range items {
			rows = append(rows, []string{strconv.Itoa(i + 1), strconv.FormatInt(it.ItemID, 10), it.Name, formatScore(it.PopularityScore)})
		}
		return printTable(cmd.OutOrStdout(), []string{"#", "id", "name", "popularity"}, rows)
	}),
}

var rateCommand = &cobra.Command{
	Use:   "rate <user-id> <game-id> <rating>",
	Short: "Add or update a rating",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		gameID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid game id %q: %w", args[1], err)
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid rating %q: %w", args[2], err)
		}
		if err := a.store.AddOrUpdateRating(cmd.Context(), args[0], gameID, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rated %d for %s: %s\n", gameID, args[0], args[2])
		return nil
	}),
}

var signupCommand = &cobra.Command{
	Use:   "signup <name>",
	Short: "Create a user and print the allocated id",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		id, err := a.store.AddUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	}),
}

var gamesCommand = &cobra.Command{
	Use:   "games <user-id>",
	Short: "List games rated by a user (--liked or --threshold keeps only liked ones)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		liked, _ := cmd.Flags().GetBool("liked")
		list := a.engine.UserGames
		if liked {
			list = a.engine.LikedGames
		}
		if cmd.Flags().Changed("threshold") {
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			list = func(ctx context.Context, userID string) ([]core.RatedGame, error) {
				return a.engine.LikedGamesAt(ctx, userID, threshold)
			}
		}
		games, err := list(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), games)
		}
		rows := make([][]string, 0, len(games))
		for _, g := range games {
			rows = append(rows, []string{strconv.FormatInt(g.ID, 10), g.Name, strconv.FormatFloat(g.Rating, 'f', -1, 64)})
		}
		return printTable(cmd.OutOrStdout(), []string{"id", "name", "rating"}, rows)
	}),
}

var refreshCommand = &cobra.Command{
	Use:   "refresh-popularity",
	Short: "Recompute popularity scores and write them back to the catalog",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		games, err := a.store.GetAllItems(ctx)
		if err != nil {
			return err
		}
		scores := popularity.Compute(games, a.settings.Popularity.Weights)
		if err := a.store.UpdatePopularityScores(ctx, scores); err != nil {
			return err
		}
		if err := a.engine.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated popularity for %d games\n", len(scores))
		return nil
	}),
}

var importCommand = &cobra.Command{
	Use:   "import <dataset.yaml|dataset.json>",
	Short: "Import games, users and ratings into the configured database",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		return importFileWithProgress(cmd.Context(), a.store, args[0], cmd.ErrOrStderr())
	}),
}
