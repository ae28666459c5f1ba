package main

import (
	"fmt"
	"io"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/scheduler"
	"github.com/SlpAus/keyforge-decks-backend/internal/stats"
	"github.com/SlpAus/keyforge-decks-backend/internal/userdeck"
	"github.com/spf13/cobra"
)

// newScheduler 注册与服务端相同的任务，但不启动 cron。
// 命令通过 RunNow 执行任务，和服务端的定时任务共用同一把锁。
func newScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New()
	if err := stats.RegisterJobs(s, cfg.Env, cfg.Jobs); err != nil {
		return nil, err
	}
	if err := userdeck.RegisterJobs(s, cfg.Jobs); err != nil {
		return nil, err
	}
	return s, nil
}

// runLocked 执行一个已注册的任务，未拿到锁时提示并正常返回
func runLocked(s *scheduler.Scheduler, name string, out io.Writer) (bool, error) {
	ran, err := s.RunNow(name)
	if err != nil {
		return ran, err
	}
	if !ran {
		fmt.Fprintf(out, "%s: lock held, skipped\n", name)
	}
	return ran, nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run the deck statistics jobs by hand",
}

var statsStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new statistics version if the previous one is complete",
	Long: `Start a new statistics version if the previous one is complete.

The job takes the same lock as the server's version job, so a successful run
also keeps the server from starting another version for the lock period.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newScheduler()
		if err != nil {
			return err
		}
		_, err = runLocked(s, stats.JobStartNewVersion, cmd.OutOrStdout())
		return err
	},
}

var statsPages int

// statsStepCmd 在累计锁内累计若干页牌组，版本完成后提前结束
var statsStepCmd = &cobra.Command{
	Use:   "step",
	Short: "Accumulate pages of decks into the latest statistics version",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := scheduler.New()
		if err := s.Register(stats.UpdateJob(statsPages)); err != nil {
			return err
		}
		ran, err := runLocked(s, stats.JobUpdateStats, cmd.OutOrStdout())
		if err != nil || !ran {
			return err
		}
		if !stats.IsUpdating() {
			fmt.Fprintln(cmd.OutOrStdout(), "statistics version complete")
		}
		return nil
	},
}

var correctCountsCmd = &cobra.Command{
	Use:   "correct-counts",
	Short: "Recompute wishlist and funny counts on decks",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newScheduler()
		if err != nil {
			return err
		}
		ran, err := runLocked(s, userdeck.JobCorrectCounts, cmd.OutOrStdout())
		if err == nil && ran {
			fmt.Fprintln(cmd.OutOrStdout(), "deck counts corrected")
		}
		return err
	},
}

var expireListingsCmd = &cobra.Command{
	Use:   "expire-listings",
	Short: "Unlist decks whose listing has expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newScheduler()
		if err != nil {
			return err
		}
		ran, err := runLocked(s, userdeck.JobExpireListings, cmd.OutOrStdout())
		if err == nil && ran {
			fmt.Fprintln(cmd.OutOrStdout(), "expired listings unlisted")
		}
		return err
	},
}

func init() {
	statsStepCmd.Flags().IntVarP(&statsPages, "pages", "n", 1, "maximum number of pages to accumulate")
}
