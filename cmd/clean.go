package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/database/repo/files"
	"github.com/anoixa/imagebank/database/repo/images"
	"github.com/anoixa/imagebank/storage"
	"github.com/spf13/cobra"
)

const cleanBatchSize = 200

// cleanCmd 清理存储中已丢失文件的记录
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete file records whose blobs are missing from storage",
	Long: `Delete file records whose blobs are missing from storage.
Every image that references a missing file is deleted together with
all of its shape associations.

Run it while the server is stopped when the memory cache is in use,
otherwise the server keeps stale lookups until the cache TTL expires.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		container := newContainer()
		defer func() { _ = container.Close() }()

		stats, err := cleanMissingFiles(cmd.Context(), container.CachedRepo, container.ImagesRepo, container.Storage(), dryRun)
		printCleanStats(os.Stdout, stats, dryRun)
		if err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
}

// cleanStats 清理统计信息
type cleanStats struct {
	checked       int
	missingFiles  int
	deletedFiles  int
	deletedImages int
	errors        []string
}

// cleanMissingFiles 遍历全部文件记录，删除存储中不存在的文件及引用它的图片
func cleanMissingFiles(ctx context.Context, fileRepo *files.CachedRepository, imageRepo *images.Repository, provider storage.Provider, dryRun bool) (*cleanStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	stats := &cleanStats{}

	err := fileRepo.FindInBatches(ctx, cleanBatchSize, func(batch []*models.StoredFile) error {
		for _, file := range batch {
			stats.checked++

			exists, err := provider.Exists(ctx, file.StoragePath)
			if err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("check %s: %v", file.StoragePath, err))
				continue
			}
			if exists {
				continue
			}

			stats.missingFiles++
			if dryRun {
				ids, err := imageRepo.ListImageIDsByFile(ctx, file.ID)
				if err != nil {
					stats.errors = append(stats.errors, fmt.Sprintf("list images of file %d: %v", file.ID, err))
					continue
				}
				log.Printf("[DRY-RUN] Would delete file %d (%s) and images %v", file.ID, file.StoragePath, ids)
				continue
			}

			ids, err := imageRepo.DeleteByFile(ctx, file.ID)
			if err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("delete images of file %d: %v", file.ID, err))
				continue
			}
			stats.deletedImages += len(ids)

			if err := fileRepo.Delete(ctx, file); err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("delete file %d: %v", file.ID, err))
				continue
			}
			stats.deletedFiles++
			log.Printf("[Clean] Deleted file %d (%s) and %d images", file.ID, file.StoragePath, len(ids))
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to scan stored files: %w", err)
	}
	if len(stats.errors) > 0 {
		return stats, fmt.Errorf("encountered %d errors during cleanup", len(stats.errors))
	}
	return stats, nil
}

// printCleanStats 打印清理统计
func printCleanStats(w io.Writer, stats *cleanStats, dryRun bool) {
	if stats == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "========================================")
	if dryRun {
		fmt.Fprintln(w, "           [DRY RUN MODE]")
	}
	fmt.Fprintln(w, "         Clean Statistics")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "File records checked:   %d\n", stats.checked)
	fmt.Fprintf(w, "Missing blobs found:    %d\n", stats.missingFiles)
	fmt.Fprintf(w, "File records deleted:   %d\n", stats.deletedFiles)
	fmt.Fprintf(w, "Images deleted:         %d\n", stats.deletedImages)
	fmt.Fprintln(w, "========================================")

	if len(stats.errors) > 0 {
		fmt.Fprintln(w, "\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
	}
}
