package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tagcask/tagcask/internal/catalog"
	"github.com/tagcask/tagcask/internal/config"
	"github.com/tagcask/tagcask/internal/constants"
	"github.com/tagcask/tagcask/internal/index"
	"github.com/tagcask/tagcask/internal/server"
	"github.com/tagcask/tagcask/internal/stats"
	"github.com/tagcask/tagcask/internal/store"
)

var (
	// Global flags
	configPath string
	cfg        *config.Config
	idx        *index.DB
	cat        catalog.Catalog
)

func main() {
	// Ensure the index is closed even on panic
	defer func() {
		if r := recover(); r != nil {
			if idx != nil {
				idx.Close()
			}
			panic(r) // Re-panic after cleanup
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "tagcask",
		Short: "Tagcask - content-addressed file tagging and search",
		Long: `Tagcask ingests files into a deduplicated, content-addressed store,
indexes them under free-form tags, and answers boolean tag queries
like "sunset -night ~sea ~lake" from the command line or over HTTP.`,
		Version: constants.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Auto-generate config file if it doesn't exist
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				log.Printf("Config file not found, creating default at %s", configPath)
				if err := cfg.Save(configPath); err != nil {
					log.Printf("Warning: failed to save default config: %v", err)
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			if cfg.Log.File != "" {
				log.SetOutput(&lumberjack.Logger{
					Filename:   cfg.Log.File,
					MaxSize:    cfg.Log.MaxSizeMB,
					MaxBackups: cfg.Log.MaxBackups,
					MaxAge:     cfg.Log.MaxAgeDays,
					Compress:   cfg.Log.Compress,
				})
			}

			idx, err = index.NewWithConfig(cfg.DatabasePath, index.DBConfig{
				MaxOpenConns:    cfg.DBMaxOpenConns,
				MaxIdleConns:    cfg.DBMaxIdleConns,
				ConnMaxLifetime: cfg.DBConnMaxLifetime,
			})
			if err != nil {
				return fmt.Errorf("failed to open index: %w", err)
			}

			files, err := store.Open(cfg.StoreRoot)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}

			cat = catalog.New(idx, files, store.NewHasher(cfg.HashAlgorithm, cfg.HashBufferSize))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if idx != nil {
				return idx.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", filepath.Join(config.DefaultDir(), "config.yaml"), "Path to configuration file")

	// Upload command
	uploadCmd := &cobra.Command{
		Use:   "upload <path> <tag>...",
		Short: "Ingest a file under the given tags",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runUpload,
	}
	uploadCmd.Flags().StringP("notes", "n", "", "Free-form notes to attach")
	uploadCmd.Flags().StringP("transcript", "t", "", "Transcript text to attach")

	// Show command
	showCmd := &cobra.Command{
		Use:   "show <hash>",
		Short: "Show the record for a content hash",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	// Search command
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find files matching a tag query",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	// Remove command
	rmCmd := &cobra.Command{
		Use:   "rm <hash>...",
		Short: "Remove files by content hash",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRemove,
	}

	// Tags command
	tagsCmd := &cobra.Command{
		Use:   "tags [prefix]",
		Short: "List tags by usage, optionally filtered by prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTags,
	}

	// Sync command
	syncCmd := &cobra.Command{
		Use:   "sync <tag>",
		Short: "Recompute a tag's usage counter from membership",
		Args:  cobra.ExactArgs(1),
		RunE:  runSync,
	}

	// Stats command
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Display statistics",
		RunE:  runStats,
	}

	// Serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}

	// Config command
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configValidateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE:  runConfigValidate,
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE:  runConfigShow,
	}

	configCmd.AddCommand(configValidateCmd, configShowCmd)

	rootCmd.AddCommand(uploadCmd, showCmd, searchCmd, rmCmd, tagsCmd, syncCmd, statsCmd, serveCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	notes, _ := cmd.Flags().GetString("notes")
	transcript, _ := cmd.Flags().GetString("transcript")

	tags := make(map[string]bool, len(args)-1)
	for _, tag := range args[1:] {
		tags[tag] = true
	}

	file, err := cat.Upload(args[0], tags, notes, transcript)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Println(file.Hash)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	file, err := cat.Lookup(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Hash:       %s\n", file.Hash)
	fmt.Printf("Name:       %s\n", file.Name)
	fmt.Printf("Path:       %s\n", file.Path)
	fmt.Printf("Uploaded:   %s\n", file.UploadedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Tags:       %v\n", file.TagList())
	if file.Notes != "" {
		fmt.Printf("Notes:      %s\n", file.Notes)
	}
	if file.Transcript != "" {
		fmt.Printf("Transcript: %s\n", file.Transcript)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	hashes, err := cat.Search(args[0])
	if err != nil {
		return err
	}

	for _, hash := range hashes {
		fmt.Println(hash)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	removed := 0
	for _, hash := range args {
		if err := cat.Remove(hash); err != nil {
			log.Printf("Failed to remove %s: %v", hash, err)
			continue
		}
		removed++
	}

	log.Printf("Removed %d of %d files", removed, len(args))
	if removed < len(args) {
		return fmt.Errorf("%d removals failed", len(args)-removed)
	}
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}

	buckets, err := cat.TagsStartingWith(prefix)
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	for _, bucket := range buckets {
		for _, tag := range bucket.Tags {
			fmt.Printf("%8d  %s\n", bucket.Count, tag)
		}
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	count, err := cat.SyncTagCount(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d\n", args[0], count)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	statistics, err := stats.NewCalculator(cat).Calculate()
	if err != nil {
		return fmt.Errorf("failed to calculate stats: %w", err)
	}

	fmt.Printf("\n=== Tagcask Statistics ===\n\n")
	fmt.Printf("Total Files: %d\n", statistics.TotalFiles)
	fmt.Printf("Total Tags:  %d\n", statistics.TotalTags)
	fmt.Printf("Store Size:  %s\n", stats.FormatSize(statistics.StoreBytes))

	if len(statistics.TopTags) > 0 {
		fmt.Printf("\nBusiest tags:\n")
		for i := len(statistics.TopTags) - 1; i >= 0; i-- {
			bucket := statistics.TopTags[i]
			for _, tag := range bucket.Tags {
				fmt.Printf("  %-24s %d\n", tag, bucket.Count)
			}
		}
	}

	fmt.Println()
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := server.NewServer(cat, cfg)

	log.Printf("Starting Tagcask v%s on %s", constants.Version, cfg.ListenAddr)
	return srv.Run(cfg.ListenAddr)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Configuration is INVALID: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
