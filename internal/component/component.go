package component

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inovacc/stanup/internal/cron"
	"github.com/inovacc/stanup/internal/database"
	"github.com/inovacc/stanup/internal/index"
	"github.com/inovacc/stanup/internal/releases"
)

// MainComponent keeps the local release index fresh on a daily schedule.
func MainComponent(cmd *cobra.Command, _ []string) error {
	if err := database.NewDatabase(); err != nil {
		return err
	}
	defer database.CloseConnection()

	idx, err := index.NewIndex(cmd.Context(), database.GetConnection())
	if err != nil {
		return err
	}

	c, err := cron.NewCron(cmd.Context())
	if err != nil {
		return err
	}

	client := releases.NewClient()

	job := func() {
		slog.Info("refreshing release index")

		rels, err := client.ListReleases(cmd.Context())
		if err != nil {
			slog.Error(err.Error())
			return
		}

		if err = idx.SaveReleases(cmd.Context(), rels); err != nil {
			slog.Error(err.Error())
			return
		}

		latest, err := idx.Latest(cmd.Context(), true)
		if err != nil {
			slog.Error(err.Error())
			return
		}

		slog.Info("release index refreshed", "releases", len(rels), "latestStable", latest.Version)
	}

	job()

	if _, err = c.AddFunc(cron.Daily, job); err != nil {
		return err
	}

	c.Start()

	slog.Info("cron started")

	<-cmd.Context().Done()
	return nil
}
