package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"

	"github.com/zapfr/engine/apiclient"
	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/version"
)

// zapfrctl is a thin command-line client over the C11 remote API (spec
// §4.11), exercising apiclient.Client the same way a Remote*Backend does.
//
// Grounded on the teacher's cmd/feeds-worker/main.go cobra+viper scaffold,
// adapted from "consume NSQ, run in-process" to "call the HTTP API and
// print the result".
func main() {
	var (
		baseURL  string
		login    string
		password string
	)

	newClient := func() *apiclient.Client {
		c, err := apiclient.New(baseURL, login, password)
		if err != nil {
			fmt.Println("FATAL: failure constructing API client:", err)
			os.Exit(1)
		}
		return c
	}

	rootCmd := &cobra.Command{
		Use:   "zapfrctl",
		Short: "zapfr command-line client",
		Long:  `Command-line client for the zapfr feed aggregation engine's HTTP API`,
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "zapfrd base URL")
	rootCmd.PersistentFlags().StringVar(&login, "login", "", "basic-auth login")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "basic-auth password")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of the application",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println("zapfrctl version:", version.Version, "build on:", version.BuildTime)
			},
		},
		&cobra.Command{
			Use:   "about",
			Short: "Show the server's API version and engine name",
			Run: func(cmd *cobra.Command, args []string) {
				info, err := newClient().About(context.Background())
				printResult(info, err)
			},
		},
		&cobra.Command{
			Use:   "sources",
			Short: "List every source",
			Run: func(cmd *cobra.Command, args []string) {
				sources, err := newClient().ListSources(context.Background())
				printResult(sources, err)
			},
		},
		subscribeCmd(newClient),
		refreshCmd(newClient),
		folderFeedsCmd(newClient),
		importOPMLCmd(newClient),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func subscribeCmd(newClient func() *apiclient.Client) *cobra.Command {
	var url, sourceID, folderID string
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe a new feed by URL",
		Run: func(cmd *cobra.Command, args []string) {
			f := &entity.Feed{URL: url}
			if sourceID != "" {
				id, err := uuid.FromString(sourceID)
				if err != nil {
					fmt.Println("FATAL: invalid --source:", err)
					os.Exit(1)
				}
				f.SourceID = id
			}
			if folderID != "" {
				id, err := uuid.FromString(folderID)
				if err != nil {
					fmt.Println("FATAL: invalid --folder:", err)
					os.Exit(1)
				}
				f.FolderID = id
			}
			err := newClient().SubscribeFeed(context.Background(), f)
			printResult(f, err)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "feed or site URL to subscribe")
	cmd.Flags().StringVar(&sourceID, "source", "", "owning source id")
	cmd.Flags().StringVar(&folderID, "folder", "", "owning folder id")
	cmd.MarkFlagRequired("url")
	return cmd
}

func refreshCmd(newClient func() *apiclient.Client) *cobra.Command {
	var feedID string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Trigger an immediate refresh of one feed",
		Run: func(cmd *cobra.Command, args []string) {
			id, err := uuid.FromString(feedID)
			if err != nil {
				fmt.Println("FATAL: invalid --feed:", err)
				os.Exit(1)
			}
			result, err := newClient().RefreshFeed(context.Background(), id)
			printResult(result, err)
		},
	}
	cmd.Flags().StringVar(&feedID, "feed", "", "feed id to refresh")
	cmd.MarkFlagRequired("feed")
	return cmd
}

func folderFeedsCmd(newClient func() *apiclient.Client) *cobra.Command {
	var folderID string
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List feeds in a folder",
		Run: func(cmd *cobra.Command, args []string) {
			id, err := uuid.FromString(folderID)
			if err != nil {
				fmt.Println("FATAL: invalid --folder:", err)
				os.Exit(1)
			}
			feeds, err := newClient().ListFeedsByFolder(context.Background(), id)
			printResult(feeds, err)
		},
	}
	cmd.Flags().StringVar(&folderID, "folder", "", "folder id to list")
	cmd.MarkFlagRequired("folder")
	return cmd
}

func importOPMLCmd(newClient func() *apiclient.Client) *cobra.Command {
	var file, sourceID string
	cmd := &cobra.Command{
		Use:   "import-opml",
		Short: "Import feeds from an OPML file into a source",
		Run: func(cmd *cobra.Command, args []string) {
			id, err := uuid.FromString(sourceID)
			if err != nil {
				fmt.Println("FATAL: invalid --source:", err)
				os.Exit(1)
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				fmt.Println("FATAL: failure reading OPML file:", err)
				os.Exit(1)
			}
			result, err := newClient().ImportOPML(context.Background(), id, string(raw))
			printResult(result, err)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to an OPML document")
	cmd.Flags().StringVar(&sourceID, "source", "", "destination source id")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("source")
	return cmd
}

func printResult(v any, err error) {
	if err != nil {
		fmt.Println("FATAL:", err)
		os.Exit(1)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println("FATAL: failure encoding result:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
