package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.load(cmd.Context())
			if err != nil {
				return err
			}
			entries := c.List(category)
			if *ctx.jsonOut {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No media entries")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ID, e.Title, string(e.Year), e.Type, categoryOf(e),
					strconv.Itoa(len(e.Reviews)), posterState(e),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Year", "Type", "Category", "Reviews", "Poster"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list entries in this category")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one media entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.load(cmd.Context())
			if err != nil {
				return err
			}
			e, err := c.GetByID(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if *ctx.jsonOut {
				return writeJSON(cmd, e)
			}

			rows := [][]string{
				{"ID", e.ID},
				{"Title", e.Title},
				{"Year", string(e.Year)},
				{"Type", e.Type},
				{"Category", categoryOf(e)},
				{"Poster", e.PosterURL},
				{"Created", formatTime(e.CreatedAt)},
				{"Updated", formatTime(e.UpdatedAt)},
				{"Reviews", strconv.Itoa(len(e.Reviews))},
			}
			for _, k := range sortedExtraKeys(e.Extra) {
				rows = append(rows, []string{k, string(e.Extra[k])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

func newReviewsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews <id>",
		Short: "List the reviews of a media entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.load(cmd.Context())
			if err != nil {
				return err
			}
			reviews, err := c.ListReviews(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if *ctx.jsonOut {
				return writeJSON(cmd, reviews)
			}
			if len(reviews) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reviews")
				return nil
			}

			rows := make([][]string, 0, len(reviews))
			for _, r := range reviews {
				updated := ""
				if r.UpdatedAt != nil {
					updated = formatTime(*r.UpdatedAt)
				}
				rows = append(rows, []string{
					r.ID, strconv.FormatFloat(float64(r.Rate), 'f', -1, 64), r.Comment,
					formatTime(r.CreatedAt), updated,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Rate", "Comment", "Created", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the persisted collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.load(cmd.Context())
			if err != nil {
				return err
			}
			problems := checkCollection(c)
			if *ctx.jsonOut {
				if err := writeJSON(cmd, map[string]any{"entries": len(c), "problems": problems}); err != nil {
					return err
				}
			} else {
				for _, p := range problems {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) found", len(problems))
			}
			if !*ctx.jsonOut {
				fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries\n", len(c))
			}
			return nil
		},
	}
}

// checkCollection reports duplicate ids and entries missing required fields
func checkCollection(c mediacatalog.Collection) []string {
	problems := []string{}
	seen := make(map[string]bool, len(c))
	for i, e := range c {
		switch {
		case e.ID == "":
			problems = append(problems, fmt.Sprintf("entry %d: missing id", i))
		case seen[e.ID]:
			problems = append(problems, fmt.Sprintf("entry %d: duplicate id %s", i, e.ID))
		}
		seen[e.ID] = true

		if e.Title == "" {
			problems = append(problems, fmt.Sprintf("entry %s: empty Title", e.ID))
		}

		reviewIDs := make(map[string]bool, len(e.Reviews))
		for _, r := range e.Reviews {
			switch {
			case r.ID == "":
				problems = append(problems, fmt.Sprintf("entry %s: review without id", e.ID))
			case reviewIDs[r.ID]:
				problems = append(problems, fmt.Sprintf("entry %s: duplicate review id %s", e.ID, r.ID))
			}
			reviewIDs[r.ID] = true
		}
	}
	return problems
}

func categoryOf(e mediacatalog.MediaEntry) string {
	if e.Category == nil {
		return "-"
	}
	return *e.Category
}

func posterState(e mediacatalog.MediaEntry) string {
	if e.PosterURL == "" {
		return "-"
	}
	return "yes"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func sortedExtraKeys(extra mediacatalog.Fields) []string {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
