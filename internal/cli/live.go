package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/factlens/factlens/internal/live"
	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/pipeline"
	"github.com/factlens/factlens/internal/render"
)

// captureFrameBytes is 100ms of 16-bit mono PCM at 16kHz
const captureFrameBytes = 3200

var liveDepth string

// liveCmd represents the live command
var liveCmd = &cobra.Command{
	Use:   "live [query]",
	Short: "Start a live voice fact-checking session",
	Long: `Live opens a bidirectional voice session with the model.

Raw 16kHz 16-bit mono PCM is read from stdin (pipe your capture device
in) and the model's audio replies are written to stdout. When the
conversation raises a new factual claim, the model calls the
verification tool; the resulting fragment merges into the running
report without interrupting the audio stream.

With a query argument, the session starts from a fresh research report
on that question. End the session with Ctrl-C; the merged report is
printed on exit.

Example:
  arecord -f S16_LE -r 16000 -c 1 | factlens live | aplay -f S16_LE -r 24000
  arecord -f S16_LE -r 16000 -c 1 | factlens live "Did Tesla invent AC power?" | aplay`,
	Args: cobra.ArbitraryArgs,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().StringVar(&liveDepth, "depth", "standard", "depth of the initial research pass")
	liveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache for the initial research")
	liveCmd.Flags().StringVar(&outJSON, "json", "", "write the final merged report as JSON on exit")
	liveCmd.Flags().StringVar(&outMD, "md", "", "write the final merged report as Markdown on exit")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.Cache.Enabled = cfg.Cache.Enabled && !noCache

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return userError(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional initial research pass seeds the session context
	var base *model.ResearchReport
	if len(args) > 0 {
		query := strings.Join(args, " ")
		fmt.Fprintf(os.Stderr, "Researching %q before the session starts...\n", query)
		result, err := p.Research(ctx, query, model.Depth(liveDepth), true)
		if err != nil {
			return userError(err)
		}
		base = result.Report
		fmt.Fprintf(os.Stderr, "✓ %d claims, %d sources\n",
			base.Metadata.ClaimsExtracted, base.Metadata.SourcesAnalyzed)
		if base.VoiceSummary != "" {
			fmt.Fprintf(os.Stderr, "%s\n", base.VoiceSummary)
		}
	}

	session, err := live.Dial(ctx, cfg.Live, cfg.Gemini.APIKey, p, base)
	if err != nil {
		return fmt.Errorf("open live session: %w", err)
	}
	defer session.Close()

	fmt.Fprintln(os.Stderr, "Live session open. Speak; Ctrl-C ends the session.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Capture loop: stdin frames to the session
	go func() {
		defer cancel()
		frame := make([]byte, captureFrameBytes)
		for {
			n, err := io.ReadFull(os.Stdin, frame)
			if n > 0 {
				if sendErr := session.SendAudio(frame[:n]); sendErr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// Playback loop: model audio to stdout
	playbackDone := make(chan struct{})
	go func() {
		defer close(playbackDone)
		for frame := range session.Playback() {
			if _, err := os.Stdout.Write(frame); err != nil {
				return
			}
		}
	}()

	// Surface the verification indicator without blocking audio
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	verifying := false

	for {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nClosing session...")
			session.Close()
			<-playbackDone
			return finishLive(session, cfg)
		case <-playbackDone:
			return finishLive(session, cfg)
		case <-ticker.C:
			if now := session.Verifying(); now != verifying {
				verifying = now
				if verifying {
					fmt.Fprintln(os.Stderr, "⚙️  Verifying a new claim...")
				} else {
					fmt.Fprintln(os.Stderr, "✓ Verification merged")
				}
			}
		}
	}
}

// finishLive prints the merged report and writes requested projections
func finishLive(session *live.Session, cfg *model.Config) error {
	report := session.Snapshot()
	if report.Query == "" && len(report.Claims) == 0 {
		return nil
	}

	for _, warning := range session.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	renderer := render.NewRenderer(cfg.Output.IncludeFooter)
	renderer.RenderSummary(report)

	if outJSON != "" && outJSON != "-" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return err
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return err
		}
	}
	return nil
}
