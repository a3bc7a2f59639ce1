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
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// cmdProgress prints deck progress to the command's error stream every step cards.
type cmdProgress struct {
	cmd   *cobra.Command
	label string
	step  int
	total int
	done  int
	next  int
}

func newCmdProgress(cmd *cobra.Command, label string) *cmdProgress {
	return &cmdProgress{cmd: cmd, label: label, step: 1000}
}

func (p *cmdProgress) Start(total int) {
	p.total, p.done, p.next = total, 0, p.step
}

func (p *cmdProgress) Increment(delta int) {
	p.done += delta
	if p.done >= p.next {
		p.cmd.PrintErrf("%s: %d/%d\n", p.label, p.done, p.total)
		p.next = p.done + p.step
	}
}

func (p *cmdProgress) Finish() {
	p.cmd.PrintErrf("%s: %d/%d 完成\n", p.label, p.done, p.total)
}
