package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"

	"sellerctl/internal/model"
	"sellerctl/internal/service"
)

// destructivePhrase must be typed to confirm a destructive command
const destructivePhrase = "confirm"

var errDeclined = errors.New("command cancelled")

// console drives one session through resolve, correct, preview and confirm
type console struct {
	out       io.Writer
	registry  *service.SchemaRegistry
	session   *service.Session
	assumeYes bool

	// ask prompts for one field value; nil means the interactive prompt
	ask func(model.FieldSpec) (string, error)
}

// handle runs one instruction end to end. A declined command is cancelled
// and leaves no audit entry.
func (c *console) handle(ctx context.Context, text string) error {
	pending := c.session.Resolve(ctx, text)
	if pending.Command.Intent == model.IntentUnknown {
		_ = c.session.Cancel(pending.ID)
		fmt.Fprintln(c.out, "Intent not recognized. Try rephrasing, or run `sellerctl intents`.")
		return nil
	}

	label := string(pending.Command.Intent)
	if pending.Meta != nil {
		label = pending.Meta.Label
	}
	fmt.Fprintf(c.out, "%s (%.0f%% confident)\n  %s\n", label, pending.Command.Confidence*100, pending.Summary)

	pending, err := c.fillMissing(pending)
	if err != nil {
		_ = c.session.Cancel(pending.ID)
		return c.declined(err)
	}

	if err := c.preview(ctx, pending.ID); err != nil {
		_ = c.session.Cancel(pending.ID)
		return err
	}

	if err := c.confirm(pending); err != nil {
		_ = c.session.Cancel(pending.ID)
		return c.declined(err)
	}

	return c.execute(ctx, pending.ID)
}

// fillMissing asks for every required field the classifier left empty
func (c *console) fillMissing(pending model.PendingCommandResponse) (model.PendingCommandResponse, error) {
	schema := c.registry.Schema(pending.Command.Intent)
	for len(pending.MissingRequired) > 0 {
		spec, ok := schema.Field(pending.MissingRequired[0])
		if !ok {
			return pending, fmt.Errorf("field %s is not in the schema", pending.MissingRequired[0])
		}
		ask := c.ask
		if ask == nil {
			ask = askField
		}
		value, err := ask(spec)
		if err != nil {
			return pending, err
		}
		updated, err := c.session.UpdateField(pending.ID, spec.Name, value)
		if err != nil {
			return pending, err
		}
		pending = updated
	}
	return pending, nil
}

func askField(spec model.FieldSpec) (string, error) {
	if spec.Type == model.FieldEnum {
		sel := promptui.Select{
			Label: fmt.Sprintf("Choose %s", spec.Name),
			Items: spec.EnumValues,
		}
		_, value, err := sel.Run()
		return value, err
	}

	label := fmt.Sprintf("Enter %s", spec.Name)
	if spec.Note != "" {
		label += " (" + spec.Note + ")"
	}
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			v, err := service.CoerceField(spec, s)
			if err != nil {
				return err
			}
			if v == nil {
				return errors.New("a value is required")
			}
			return nil
		},
	}
	return p.Run()
}

// preview shows a spinner until the current-state fetch completes
func (c *console) preview(ctx context.Context, id string) error {
	job, err := c.session.StartPreview(ctx, id)
	if err != nil {
		return err
	}

	if job.Snapshot().Loading {
		spinner := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(c.out),
			progressbar.OptionSetDescription("Fetching current listings"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		ticker := time.NewTicker(100 * time.Millisecond)
	wait:
		for {
			select {
			case <-job.Done():
				break wait
			case <-ctx.Done():
				break wait
			case <-ticker.C:
				_ = spinner.Add(1)
			}
		}
		ticker.Stop()
		_ = spinner.Finish()
	}

	p, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	renderPreview(c.out, p)
	return nil
}

func renderPreview(w io.Writer, p model.Preview) {
	if len(p.Lines) == 0 {
		return
	}
	fmt.Fprintln(w, "Preview:")
	for _, l := range p.Lines {
		switch {
		case l.Warning != "":
			fmt.Fprintf(w, "  %s: %s\n", l.Label, l.Warning)
		case l.Info != "":
			fmt.Fprintf(w, "  %s: %s\n", l.Label, l.Info)
		case l.Before != "" || l.After != "":
			fmt.Fprintf(w, "  %s: %s → %s\n", l.Label, l.Before, l.After)
		default:
			fmt.Fprintf(w, "  %s\n", l.Label)
		}
	}
}

// confirm asks before anything is executed. Destructive commands always
// need the phrase typed out, even with --yes.
func (c *console) confirm(pending model.PendingCommandResponse) error {
	if pending.Meta != nil && pending.Meta.Destructive {
		p := promptui.Prompt{
			Label: fmt.Sprintf("This cannot be undone. Type %q to proceed", destructivePhrase),
			Validate: func(s string) error {
				if strings.TrimSpace(s) != destructivePhrase {
					return fmt.Errorf("type %q or press Ctrl+C to cancel", destructivePhrase)
				}
				return nil
			},
		}
		_, err := p.Run()
		return err
	}

	if c.assumeYes {
		return nil
	}
	p := promptui.Prompt{Label: "Apply this change", IsConfirm: true}
	_, err := p.Run()
	return err
}

func (c *console) execute(ctx context.Context, id string) error {
	var bar *progressbar.ProgressBar
	resp, err := c.session.Confirm(ctx, id, func(done, total int, l model.ItemLog) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(c.out),
				progressbar.OptionSetDescription("Applying"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	mark := "✔"
	if !resp.Result.Success {
		mark = "✘"
	}
	fmt.Fprintf(c.out, "%s %s\n", mark, resp.Result.Message)
	for _, l := range resp.Result.ItemLogs {
		if !l.Success && len(resp.Result.ItemLogs) > 1 {
			fmt.Fprintf(c.out, "  %s %s: %s\n", l.ItemID, l.Title, l.Error)
		}
	}
	return nil
}

// declined turns prompt aborts into a plain notice
func (c *console) declined(err error) error {
	if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		fmt.Fprintln(c.out, errDeclined.Error())
		return nil
	}
	return err
}

func renderHistory(w io.Writer, entries []model.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No commands executed yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-7s  %-28s  %q\n    %s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Status, e.Intent, e.RawInput, e.Details)
	}
}
