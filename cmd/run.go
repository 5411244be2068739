/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/blnkfinance/reachout"
	"github.com/blnkfinance/reachout/model"
	"github.com/spf13/cobra"
)

// terminalOperator answers previews from a line-based reader, so a campaign
// can be run from a shell without the HTTP server.
type terminalOperator struct {
	in        *bufio.Scanner
	out       io.Writer
	approvals *reachout.ApprovalCoordinator
}

func newTerminalOperator(in io.Reader, out io.Writer, approvals *reachout.ApprovalCoordinator) *terminalOperator {
	return &terminalOperator{in: bufio.NewScanner(in), out: out, approvals: approvals}
}

// handle consumes events until the channel closes or the run completes.
func (o *terminalOperator) handle(events <-chan model.OutreachEvent) {
	for ev := range events {
		switch ev.Event {
		case model.EventPrepare:
			if c, ok := ev.Data.(model.CandidateEvent); ok {
				fmt.Fprintf(o.out, "Preparing message for %s <%s>...\n", c.Name, c.Email)
			}
		case model.EventPreview:
			preview, ok := ev.Data.(model.Preview)
			if !ok {
				continue
			}
			o.review(preview)
		case model.EventSent, model.EventFailed, model.EventSkipped:
			if c, ok := ev.Data.(model.CandidateEvent); ok {
				line := fmt.Sprintf("%s: %s", c.Email, c.Status)
				if c.Error != "" {
					line += " (" + c.Error + ")"
				}
				fmt.Fprintln(o.out, line)
			}
		case model.EventCompleted:
			return
		}
	}
}

func (o *terminalOperator) review(preview model.Preview) {
	fmt.Fprintf(o.out, "\n[%d] To: %s <%s>\nSubject: %s\n\n%s\n\n", preview.Index, preview.Name, preview.Email, preview.Subject, preview.Body)

	resp := model.OperatorResponse{Email: preview.Email, Index: preview.Index}
	event := model.EventReject

	for {
		fmt.Fprint(o.out, "Send this message? [y]es / [n]o / [e]dit subject: ")
		answer, ok := o.readLine()
		if !ok {
			break
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			event = model.EventApprove
		case "n", "no", "s", "skip":
			event = model.EventReject
		case "e", "edit":
			fmt.Fprint(o.out, "New subject: ")
			subject, ok := o.readLine()
			if !ok || subject == "" {
				continue
			}
			resp.Subject = &subject
			event = model.EventApprove
		default:
			continue
		}
		break
	}

	if err := o.approvals.Resolve(event, resp); err != nil {
		fmt.Fprintf(o.out, "decision not recorded: %v\n", err)
	}
}

// readLine returns false once the input is exhausted, which rejects the
// preview in front of the operator.
func (o *terminalOperator) readLine() (string, bool) {
	if !o.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(o.in.Text()), true
}

// runCommands defines the "run" command, which executes one campaign with
// approvals read from stdin.
func runCommands(app *reachoutInstance) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run an outreach campaign from the terminal",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			r, err := app.engine()
			if err != nil {
				log.Fatal(err)
			}
			defer r.Close()

			_, events, cancel := r.Events().Subscribe()
			defer cancel()

			operator := newTerminalOperator(cmd.InOrStdin(), cmd.OutOrStdout(), r.Approvals())
			done := make(chan struct{})
			go func() {
				defer close(done)
				operator.handle(events)
			}()

			result, err := r.RunOutreach(ctx, reachout.RunOptions{Target: email})
			if err != nil {
				log.Fatalf("outreach failed: %v", err)
			}
			cancel()
			<-done

			data, err := json.MarshalIndent(result, "", "    ")
			if err != nil {
				log.Fatal(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "only contact this recipient")
	return cmd
}
