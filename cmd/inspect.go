package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/m3ux/internal/formatter"
	"github.com/desertthunder/m3ux/internal/models"
	"github.com/desertthunder/m3ux/internal/playlist"
	"github.com/desertthunder/m3ux/internal/rules"
	"github.com/desertthunder/m3ux/internal/ui"
	"github.com/urfave/cli/v3"
)

// Inspect fetches and parses the source, optionally applies the rules, and prints the channels.
//
// Nothing is written and the digest is left untouched.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	r.setVerbosity(cmd)

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if s := cmd.String("source"); s != "" {
		config.Source.URL = s
	}

	raw, err := r.newFetcher(config).Fetch(ctx, config.Source.URL)
	if err != nil {
		return err
	}

	records, diags := playlist.Parse(raw)
	title := fmt.Sprintf("%d channels from %s", len(records), config.Source.URL)

	if cmd.Bool("apply") {
		rs, err := rules.FromConfig(config.Rules)
		if err != nil {
			return err
		}
		var ruleDiags []models.Diagnostic
		records, ruleDiags = rules.NewEngine(rs, r.logger).Apply(records)
		diags = append(diags, ruleDiags...)
		title = fmt.Sprintf("%d channels after %d rules", len(records), len(rs))
	}

	if groups := cmd.StringSlice("group"); len(groups) > 0 {
		records = slices.DeleteFunc(records, func(rec playlist.Record) bool {
			return !slices.Contains(groups, rec.Group)
		})
	}

	format := cmd.String("format")
	if format == "" || format == "table" {
		if err := r.writePlain("%s", ui.ChannelTable(title, records).Render(r.palette)); err != nil {
			return err
		}
		if len(diags) > 0 {
			return r.writePlain("\n%s", ui.Diagnostics(r.palette, diags))
		}
		return nil
	}

	for _, d := range diags {
		r.logger.Warn("diagnostic", "step", d.Step, "outcome", d.Outcome, "detail", d.Detail)
	}

	data, err := formatter.Export(records, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// Rules compiles the configured rules and prints them in application order.
func (r *Runner) Rules(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	rs, err := rules.FromConfig(config.Rules)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		return r.writePlain("%s\n", r.palette.Help("no rules configured"))
	}

	table := ui.NewTable(fmt.Sprintf("%d rules", len(rs)), "#", "Name", "Kind", "Match", "Anchor", "Group")
	for i, rule := range rs {
		anchor := ""
		if rule.Kind == rules.KindDuplicateAfter || rule.Kind == rules.KindMoveAfter {
			anchor = rule.Anchor.String()
		}
		table.AddRow(fmt.Sprint(i+1), rule.Summary(), string(rule.Kind), rule.Match.String(), anchor, rule.TargetGroup)
	}
	return r.writePlain("%s", table.Render(r.palette))
}
