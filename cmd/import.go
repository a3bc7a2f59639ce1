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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/taboo/internal/app"
	"github.com/eslsoft/taboo/internal/usecase/deck"
)

const (
	importInputKey  = "deck.import.input"
	importGzipKey   = "deck.import.gzip"
	importFormatKey = "deck.import.format"
	importBatchKey  = "deck.import.batch_size"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "从 JSONL 或 YAML 文件导入卡牌",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		inputPath := viper.GetString(importInputKey)
		gzipEnabled := viper.GetBool(importGzipKey)
		batchSize := viper.GetInt(importBatchKey)

		if inputPath == "" {
			return fmt.Errorf("请通过 --input 指定卡牌文件或使用 - 表示标准输入")
		}
		format, err := deck.ParseFormat(viper.GetString(importFormatKey), inputPath)
		if err != nil {
			return err
		}

		container, cleanup, err := app.InitializeDeck([]deck.Option{
			deck.WithBatchSize(batchSize),
			deck.WithProgressReporter(newCmdProgress(cmd, "导入")),
		})
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		input, err := openDeckInput(cmd.InOrStdin(), inputPath, gzipEnabled)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := input.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		report, err := container.Decks.Import(ctx, input, format)
		if err != nil {
			return fmt.Errorf("导入卡牌失败: %w", err)
		}

		for _, rej := range report.Rejected {
			container.Logger.WithField("position", rej.Position).
				WithField("answer_word", rej.AnswerWord).
				Warnf("跳过无效卡牌: %s", rej.Reason)
		}
		cmd.Printf("导入完成: 读取 %d, 写入 %d, 跳过 %d\n", report.Read, report.Imported, len(report.Rejected))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "卡牌文件路径，使用 - 表示标准输入")
	importCmd.Flags().Bool("gzip", false, "输入为 gzip 压缩格式")
	importCmd.Flags().String("format", "", "文件格式: jsonl 或 yaml (默认按扩展名判断)")
	importCmd.Flags().Int("batch-size", 0, "导入批处理大小 (默认 200)")

	bindImportConfig()
}

func bindImportConfig() {
	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importFormatKey, importCmd.Flags().Lookup("format"))
	bindFlagToViper(importBatchKey, importCmd.Flags().Lookup("batch-size"))
}
