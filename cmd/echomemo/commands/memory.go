package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/echomemo/pkg/cli"
	"github.com/haivivi/echomemo/pkg/echomemo"
	"github.com/haivivi/echomemo/pkg/memstore"
)

var (
	memoryLimit int
	memoryMode  string
	memoryTags  []string
)

var memoryCmd = &cobra.Command{
	Use:     "memory",
	Aliases: []string{"mem"},
	Short:   "Browse and edit stored memories",
	Long: `Browse and edit the memory store used by the appliance.

Do not run these while the appliance is running on the same badger
directory; badger allows a single process at a time.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest memories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *memstore.Store) error {
			entries, err := store.List(ctx, memoryLimit)
			if err != nil {
				return err
			}
			return cli.Output(newEntryList(entries), outputOptions(cmd))
		})
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Find memories containing a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *memstore.Store) error {
			entries, err := store.Search(ctx, args[0], memoryLimit)
			if err != nil {
				return err
			}
			return cli.Output(newEntryList(entries), outputOptions(cmd))
		})
	},
}

var memoryDatesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List the days that have memories, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *memstore.Store) error {
			dates, err := store.Dates(ctx, memoryLimit)
			if err != nil {
				return err
			}
			var out dayList
			for _, d := range dates {
				entries, err := store.ByDate(ctx, d)
				if err != nil {
					return err
				}
				out = append(out, dayView{Date: d.Format(time.DateOnly), Entries: len(entries)})
			}
			return cli.Output(out, outputOptions(cmd))
		})
	},
}

var memoryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, store *memstore.Store) error {
			e, err := store.Get(ctx, id)
			if err != nil {
				return err
			}
			return cli.Output(newEntryView(e), outputOptions(cmd))
		})
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, store *memstore.Store) error {
			if err := store.Delete(ctx, id); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "deleted memory %d", id)
			return nil
		})
	},
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Store a memory by hand",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := echomemo.ParseMode(memoryMode)
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		return withStore(cmd, func(ctx context.Context, store *memstore.Store) error {
			id, err := store.Add(ctx, text, mode.String(), memoryTags...)
			if err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "stored memory %d", id)
			return nil
		})
	},
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *memstore.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var logger *slog.Logger
	if verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cmd.Context(), store)
}

func parseEntryID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid memory id %q", s)
	}
	return id, nil
}

type entryView struct {
	ID      uint64   `json:"id" yaml:"id"`
	Time    string   `json:"time" yaml:"time"`
	Mode    string   `json:"mode" yaml:"mode"`
	Content string   `json:"content" yaml:"content"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func newEntryView(e memstore.Entry) entryView {
	return entryView{
		ID:      e.ID,
		Time:    e.Time().Format(time.DateTime),
		Mode:    e.Mode,
		Content: e.Content,
		Tags:    e.Tags,
	}
}

type entryList []entryView

func newEntryList(entries []memstore.Entry) entryList {
	out := make(entryList, 0, len(entries))
	for _, e := range entries {
		out = append(out, newEntryView(e))
	}
	return out
}

func (l entryList) Header() []string {
	return []string{"ID", "TIME", "MODE", "CONTENT"}
}

func (l entryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{strconv.FormatUint(e.ID, 10), e.Time, e.Mode, cli.Ellipsis(e.Content, 48)})
	}
	return rows
}

type dayView struct {
	Date    string `json:"date" yaml:"date"`
	Entries int    `json:"entries" yaml:"entries"`
}

type dayList []dayView

func (l dayList) Header() []string { return []string{"DATE", "ENTRIES"} }

func (l dayList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, d := range l {
		rows = append(rows, []string{d.Date, strconv.Itoa(d.Entries)})
	}
	return rows
}

func init() {
	for _, c := range []*cobra.Command{memoryListCmd, memorySearchCmd, memoryDatesCmd} {
		c.Flags().IntVarP(&memoryLimit, "limit", "n", 20, "maximum number of results")
	}
	memoryAddCmd.Flags().StringVar(&memoryMode, "mode", memstore.ModeDaily, "mode tag (daily, chat, diary, reminder)")
	memoryAddCmd.Flags().StringSliceVar(&memoryTags, "tags", nil, "extra tags")

	memoryCmd.AddCommand(memoryListCmd, memorySearchCmd, memoryDatesCmd, memoryShowCmd, memoryDeleteCmd, memoryAddCmd)
	rootCmd.AddCommand(memoryCmd)
}
