package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/spf13/cobra"
)

// ingestCmd 将本地文件或远程地址直接写入存储
var ingestCmd = &cobra.Command{
	Use:   "ingest <path-or-url>...",
	Short: "Ingest local files or URLs into the store",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		variants, _ := cmd.Flags().GetBool("variants")

		container := newContainer()
		defer func() { _ = container.Close() }()

		failed := 0
		for _, arg := range args {
			if err := ingestOne(cmd.Context(), container.Generator, container.Fetcher, arg, variants, os.Stdout); err != nil {
				log.Printf("[Ingest] %s: %v", arg, err)
				failed++
			}
		}
		if failed > 0 {
			log.Fatalf("%d of %d inputs failed", failed, len(args))
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Bool("variants", false, "also derive the md and sm thumbnails")
}

// ingestedFile 命令输出的一行
type ingestedFile struct {
	Shape       string `json:"shape"`
	ID          uint   `json:"id"`
	Fingerprint string `json:"fingerprint"`
	StoragePath string `json:"storage_path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FileSize    int64  `json:"file_size"`
	Format      string `json:"format,omitempty"`
}

func isRemote(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// ingestOne 入库单个输入，按 JSON Lines 输出结果
func ingestOne(ctx context.Context, gen *process.Generator, fetcher *process.Fetcher, arg string, variants bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var src process.Source
	if isRemote(arg) {
		s, err := fetcher.Fetch(ctx, arg)
		if err != nil {
			return err
		}
		src = s
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		src = process.NewReaderSource(f, filepath.Base(arg), "")
	}

	var shapes []string
	var results []*models.StoredFile
	if variants {
		v, err := gen.DeriveStandard(ctx, src)
		if err != nil {
			return err
		}
		shapes = []string{models.ShapeOrigin, models.ShapeMedium, models.ShapeSmall}
		results = []*models.StoredFile{v.Origin, v.Medium, v.Small}
	} else {
		file, err := gen.Store().Ingest(ctx, src)
		if err != nil {
			return err
		}
		shapes = []string{models.ShapeOrigin}
		results = []*models.StoredFile{file}
	}

	enc := json.NewEncoder(out)
	for i, file := range results {
		if err := enc.Encode(ingestedFile{
			Shape:       shapes[i],
			ID:          file.ID,
			Fingerprint: file.Fingerprint,
			StoragePath: file.StoragePath,
			Width:       file.Width,
			Height:      file.Height,
			FileSize:    file.FileSize,
			Format:      file.FormatName(),
		}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}
