/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/taboo/internal/app"
	"github.com/eslsoft/taboo/internal/repository"
	"github.com/eslsoft/taboo/internal/usecase/deck"
)

const (
	exportOutputKey   = "deck.export.output"
	exportGzipKey     = "deck.export.gzip"
	exportFilterKey   = "deck.export.filter"
	exportInactiveKey = "deck.export.include_inactive"
	exportBatchKey    = "deck.export.batch_size"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出卡牌为 JSONL 文件",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		outputPath := viper.GetString(exportOutputKey)
		gzipEnabled := viper.GetBool(exportGzipKey)
		batchSize := viper.GetInt(exportBatchKey)

		if outputPath == "" {
			outputPath = defaultExportFilename(gzipEnabled)
		}

		container, cleanup, err := app.InitializeDeck([]deck.Option{
			deck.WithBatchSize(batchSize),
			deck.WithProgressReporter(newCmdProgress(cmd, "导出")),
		})
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		output, err := createDeckOutput(cmd.OutOrStdout(), outputPath, gzipEnabled)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := output.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		query := repository.ListCardQuery{
			FilterOrder:     repository.FilterOrder{Filter: viper.GetString(exportFilterKey), OrderBy: "id asc"},
			IncludeInactive: viper.GetBool(exportInactiveKey),
		}
		written, err := container.Decks.Export(ctx, output, query)
		if err != nil {
			return fmt.Errorf("导出卡牌失败: %w", err)
		}

		if outputPath == stdioPath {
			cmd.PrintErrf("导出完成: %d 张卡牌写入标准输出\n", written)
		} else {
			cmd.Printf("导出完成: %d 张卡牌写入 %s\n", written, outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "输出文件路径，使用 - 表示标准输出")
	exportCmd.Flags().Bool("gzip", false, "使用 gzip 压缩输出")
	exportCmd.Flags().String("filter", "", "CEL 过滤表达式，例如 category == 'ANIMALS'")
	exportCmd.Flags().Bool("include-inactive", false, "同时导出已停用的卡牌")
	exportCmd.Flags().Int("batch-size", 0, "导出批处理大小 (默认 200)")

	bindExportConfig()
}

func bindExportConfig() {
	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportFilterKey, exportCmd.Flags().Lookup("filter"))
	bindFlagToViper(exportInactiveKey, exportCmd.Flags().Lookup("include-inactive"))
	bindFlagToViper(exportBatchKey, exportCmd.Flags().Lookup("batch-size"))
}

func defaultExportFilename(gzipEnabled bool) string {
	name := fmt.Sprintf("taboo-cards-%s.jsonl", time.Now().UTC().Format("20060102-150405"))
	if gzipEnabled {
		name += ".gz"
	}
	return name
}
