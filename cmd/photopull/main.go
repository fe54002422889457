package main

import (
	"fmt"
	"os"
	"sort"
	"syscall"
	"time"

	"photopull/internal/app"
	"photopull/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// app.Close(). runID tags every structured log line of the invocation.
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	a, err := app.NewApp(cfg, runID)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "photopull",
	Short: "Photo library download and organization tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])
		cfg.Catalog = config.CatalogConfig{Type: "sqlite", DataDir: defaults["data_dir"]}

		bucket, _ := cmd.Flags().GetString("s3-bucket")
		if bucket != "" {
			endpoint, _ := cmd.Flags().GetString("s3-endpoint")
			accessKey, _ := cmd.Flags().GetString("s3-access-key")

			fmt.Print("S3 secret access key: ")
			secret, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading secret: %w", err)
			}

			cfg.Source = config.SourceConfig{
				Type:              "s3",
				S3Bucket:          bucket,
				S3Endpoint:        endpoint,
				S3AccessKeyID:     accessKey,
				S3SecretAccessKey: string(secret),
			}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Output Root: %s\n", cfg.OutputRoot)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Instance ID:  %s\n", cfg.InstanceID)
		fmt.Printf("Output Root:  %s\n", cfg.OutputRoot)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Organization: %s\n", cfg.Organization)
		fmt.Printf("Source:       %s\n", cfg.Source.Type)
		fmt.Printf("Catalog:      %s\n", cfg.Catalog.Type)
		return nil
	},
}

// download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and organize the photo library",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		mode, _ := cmd.Flags().GetString("mode")
		output, _ := cmd.Flags().GetString("output")
		workers, _ := cmd.Flags().GetInt("workers")
		personal, _ := cmd.Flags().GetBool("personal")
		shared, _ := cmd.Flags().GetBool("shared")
		albums, _ := cmd.Flags().GetBool("albums")

		summary, err := a.Download(cmd.Context(), app.DownloadOptions{
			Mode:       mode,
			OutputRoot: output,
			Workers:    workers,
			Personal:   personal,
			Shared:     shared,
			Albums:     albums,
		})
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}

		fmt.Printf("Done: %s\n", summary)
		return nil
	},
}

// count command
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count assets per section without downloading",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.Count(cmd.Context())
		if err != nil {
			return err
		}

		names := make([]string, 0, len(counts))
		total := 0
		for name, n := range counts {
			names = append(names, name)
			total += n
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("%-30s %d\n", name, counts[name])
		}
		fmt.Printf("%-30s %d\n", "Total", total)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View download run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No download runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %s  %-13s  committed=%d skipped=%d failed=%d  %s\n",
				r.ID[:8],
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Mode,
				r.Committed,
				r.Skipped,
				r.Failed,
				duration,
			)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("s3-bucket", "", "S3 bucket holding the library mirror")
	configInitCmd.Flags().String("s3-endpoint", "", "S3-compatible endpoint URL")
	configInitCmd.Flags().String("s3-access-key", "", "S3 access key ID")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().String("mode", "", "Organization mode: type_year or location_year")
	downloadCmd.Flags().String("output", "", "Output root directory")
	downloadCmd.Flags().IntP("workers", "w", 0, "Concurrent download workers")
	downloadCmd.Flags().Bool("personal", false, "Only the personal library")
	downloadCmd.Flags().Bool("shared", false, "Only items shared with you")
	downloadCmd.Flags().Bool("albums", false, "Only shared albums")
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
}
