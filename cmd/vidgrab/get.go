package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vidgrab/vidgrab/internal/client"
	"github.com/vidgrab/vidgrab/internal/domain"
	"github.com/vidgrab/vidgrab/internal/infra/config"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
)

var (
	getServer string
	getFormat string
	getAudio  bool
	getStart  int
	getEnd    int
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download a video through a running vidgrab server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return get(cmd.Context(), args[0])
	},
}

func init() {
	getCmd.Flags().StringVar(&getServer, "server", "ws://localhost:8000", "server base address")
	getCmd.Flags().StringVarP(&getFormat, "format", "f", "", "format id to download")
	getCmd.Flags().BoolVarP(&getAudio, "audio", "a", false, "extract audio as mp3")
	getCmd.Flags().IntVar(&getStart, "start", -1, "trim start in seconds (audio only)")
	getCmd.Flags().IntVar(&getEnd, "end", -1, "trim end in seconds (audio only)")
}

func get(ctx context.Context, url string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(os.Stderr, logger.ParseLevel(cfg.Log.Level))

	req := domain.DownloadRequest{
		URL:          url,
		FormatID:     getFormat,
		ExtractAudio: getAudio,
	}
	if getStart >= 0 && getEnd >= 0 {
		req.StartTime = &getStart
		req.EndTime = &getEnd
	}

	if err := req.Validate(); err != nil {
		return err
	}

	c := client.New(getServer+"/api/ws/download", client.Config{
		MaxAttempts: cfg.Client.MaxAttempts,
		BaseDelay:   cfg.Client.BaseDelay,
	}, log)

	var failed error
	err = c.Download(ctx, req, func(rec domain.ProgressRecord) {
		switch rec.Status {
		case domain.StatusDownloading:
			printProgress(rec)
		case domain.StatusFinished:
			fmt.Printf("\nfinished: %s\n", rec.Filename)
		case domain.StatusError:
			failed = fmt.Errorf("download failed: %s", rec.Message)
			fmt.Printf("\nerror: %s\n", rec.Message)
		}
	})
	if err != nil {
		return err
	}
	return failed
}

func printProgress(rec domain.ProgressRecord) {
	if rec.DownloadedBytes == nil {
		fmt.Print("\rstarting...")
		return
	}

	line := fmt.Sprintf("\r%s", humanize.Bytes(uint64(*rec.DownloadedBytes)))
	if rec.TotalBytes != nil {
		line += " / " + humanize.Bytes(uint64(*rec.TotalBytes))
	}
	if rec.Speed != nil {
		line += fmt.Sprintf(" @ %s/s", humanize.Bytes(uint64(*rec.Speed)))
	}
	if rec.FragmentIndex != nil && rec.FragmentCount != nil {
		line += fmt.Sprintf(" (fragment %d/%d)", *rec.FragmentIndex, *rec.FragmentCount)
	}
	fmt.Print(line + "      ")
}
