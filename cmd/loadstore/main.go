package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/loadstore/pkg/log"
	"github.com/cuemby/loadstore/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagConfig  string
	flagDataDir string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loadstore",
	Short: "Loadstore - persistence layer for the load-testing platform",
	Long: `Loadstore manages the on-disk store behind the load-testing
platform: job definitions, optimizing jobs, folders, uploaded files,
users, groups, and configuration, all in one embedded transactional
environment.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig(flagConfig)
		if err != nil {
			return err
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}
		log.Init(log.Config{Level: cfg.LogLevel})
		cliConfig = cfg
		return nil
	},
}

var cliConfig *CLIConfig

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Loadstore version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Store data directory (overrides config file)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(folderCmd)
}

// openStore opens the configured store, read-only when the command only
// reads.
func openStore(readOnly bool) (*storage.Store, error) {
	return storage.Open(storage.Options{
		DataDir:  cliConfig.DataDir,
		ReadOnly: readOnly,
	})
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new store",
	Long: `Create a brand-new store in the data directory: the environment,
the nine collections, the default catalogs, and the default folder.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storage.Bootstrap(cliConfig.DataDir); err != nil {
			return err
		}
		fmt.Printf("Store created in %s\n", cliConfig.DataDir)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [folder ...]",
	Short: "Export folders and their contents to a stream file",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return fmt.Errorf("an --output file is required")
		}

		s, err := openStore(true)
		if err != nil {
			return err
		}
		defer s.Close()

		folders := args
		if len(folders) == 0 {
			all, err := s.GetFolders()
			if err != nil {
				return err
			}
			for _, f := range all {
				folders = append(folders, f.Name)
			}
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := s.Export(folders, nil, nil, f); err != nil {
			return err
		}
		fmt.Printf("Exported %d folder(s) to %s\n", len(folders), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <stream-file>",
	Short: "Import a previously exported stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(false)
		if err != nil {
			return err
		}
		defer s.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		report, err := s.Import(f)
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d record(s): %d written, %d merged, %d conflict(s), %d failure(s)\n",
			report.Records, report.Written, report.Merged, len(report.Conflicts), report.Failures)
		for _, c := range report.Conflicts {
			fmt.Printf("  conflict: %s\n", c)
		}
		if !report.Complete {
			return fmt.Errorf("import finished with errors")
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration parameters",
}

var configGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a configuration parameter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(true)
		if err != nil {
			return err
		}
		defer s.Close()

		value, err := s.GetConfigParameter(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set a configuration parameter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(false)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SetConfigParameter(args[0], args[1])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration parameter names",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(true)
		if err != nil {
			return err
		}
		defer s.Close()

		names, err := s.ConfigParameterNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Inspect job folders",
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders and their contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(true)
		if err != nil {
			return err
		}
		defer s.Close()

		folders, err := s.GetFolders()
		if err != nil {
			return err
		}
		for _, f := range folders {
			fmt.Printf("%s\t%d job(s)\t%d optimizing\t%d file(s)\n",
				f.Name, len(f.JobIDs), len(f.OptimizingJobIDs), len(f.FileNames))
		}

		virtual, err := s.GetVirtualFolders()
		if err != nil {
			return err
		}
		for _, f := range virtual {
			fmt.Printf("%s (virtual)\t%d job(s)\n", f.Name, len(f.JobIDs))
		}
		return nil
	},
}

var folderShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one folder's membership",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(true)
		if err != nil {
			return err
		}
		defer s.Close()

		f, err := s.GetFolder(args[0])
		if err != nil {
			return err
		}
		if f == nil {
			return fmt.Errorf("no such folder: %s", args[0])
		}

		fmt.Printf("Name: %s\n", f.Name)
		if f.Parent != "" {
			fmt.Printf("Parent: %s\n", f.Parent)
		}
		if f.Description != "" {
			fmt.Printf("Description: %s\n", f.Description)
		}
		printList("Children", f.ChildNames)
		printList("Jobs", f.JobIDs)
		printList("Optimizing jobs", f.OptimizingJobIDs)
		printList("Files", f.FileNames)
		return nil
	},
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, item := range items {
		fmt.Printf("  %s\n", item)
	}
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "File to write the export stream to")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	folderCmd.AddCommand(folderListCmd)
	folderCmd.AddCommand(folderShowCmd)
}
