package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyagen/mythvault/internal/models"
	"github.com/voyagen/mythvault/internal/protocol"
	"github.com/voyagen/mythvault/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			dsn := cfg.Database.DSN()
			if err := store.RunMigrations(dsn); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			v, dirty, err := store.SchemaVersion(dsn)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema up to date")
			return nil
		},
	}
}

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the master and slave backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pg, err := openPlain(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			backends, err := pg.ListBackends(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range backends {
				fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <hostname-or-ip>",
		Short: "Resolve a hostname or IP address to a backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pg, err := openPlain(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			b, err := pg.ResolveBackend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("no backend known as %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), b)
			return nil
		},
	}
}

func titlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "titles [group]",
		Short: `List recorded titles of a recording group (default "All Groups")`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := models.GroupAllGroups
			if len(args) == 1 {
				group = args[0]
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pg, err := openPlain(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			titles, err := pg.ListRecordingTitles(cmd.Context(), group)
			if err != nil {
				return err
			}
			for _, tc := range titles {
				fmt.Fprintf(cmd.OutOrStdout(), "%5d  %s\n", tc.Count, tc.Title)
			}
			return nil
		},
	}
}

func jobsCmd() *cobra.Command {
	var (
		chanID     int
		start      string
		jobType    string
		recordFile string
		active     bool
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List queued jobs, optionally for one recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			var filter store.JobFilter
			switch {
			case recordFile != "":
				prog, err := readProgram(recordFile, cfg.ProtocolVersion)
				if err != nil {
					return err
				}
				filter.Program = &prog
			case chanID != 0 || start != "":
				if chanID == 0 || start == "" {
					return errors.New("--chanid and --start must be given together")
				}
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				filter.Program = &models.RecordedProgram{ChannelID: chanID, StartTime: t}
			}
			if jobType != "" {
				jt, err := models.ParseJobType(jobType)
				if err != nil {
					return err
				}
				filter.JobType = &jt
			}

			pg, err := openPlain(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			jobs, err := pg.ListJobs(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if active {
				jobs = activeJobs(jobs)
			}
			for _, j := range jobs {
				fmt.Fprintln(cmd.OutOrStdout(), j)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&chanID, "chanid", 0, "Channel id of the recording")
	cmd.Flags().StringVar(&start, "start", "", "Start time of the recording (RFC 3339)")
	cmd.Flags().StringVar(&jobType, "type", "", "Job type name or code")
	cmd.Flags().StringVar(&recordFile, "record", "", "File holding a backend program record; selects its recording")
	cmd.Flags().BoolVar(&active, "active", false, "Only show jobs that have not reached a final state")
	return cmd
}

// activeJobs drops jobs whose status is final.
func activeJobs(jobs []models.Job) []models.Job {
	return slices.DeleteFunc(jobs, func(j models.Job) bool { return j.Status.Done() })
}

// readProgram decodes a program record saved from the backend protocol.
func readProgram(path string, protocolVersion int) (models.RecordedProgram, error) {
	v, err := protocol.Lookup(protocolVersion)
	if err != nil {
		return models.RecordedProgram{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.RecordedProgram{}, err
	}
	return protocol.DecodeProgram(v, protocol.SplitRecord(string(raw)))
}
