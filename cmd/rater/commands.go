package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"alrater/internal/apperr"
	"alrater/internal/export"
	"alrater/internal/intake"
	"alrater/internal/loader"
	"alrater/internal/model"
	"alrater/internal/service"

	"github.com/shopspring/decimal"
)

// runRateCmd rates one policy document.
//
// Exit codes:
//
//	0 = rated (and saved/exported when asked)
//	1 = validation, lookup, storage or export failure
//	2 = usage error
func runRateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("rate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		policyPath string
		printed    string
		noBroker   bool
		save       bool
		exportDir  string
		jsonOutput bool
	)
	cmd.StringVar(&policyPath, "policy", "", "Path to the policy JSON document (REQUIRED)")
	cmd.StringVar(&printed, "printed", "", "Printed total to reconcile against, overrides the document")
	cmd.BoolVar(&noBroker, "no-broker", false, "Leave the broker fee out")
	cmd.BoolVar(&save, "save", false, "Store the calculation")
	cmd.StringVar(&exportDir, "export", "", "Write a timestamped JSON export into this directory")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the full quote as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if policyPath == "" {
		fmt.Fprintln(stderr, "Error: -policy is required")
		return 2
	}
	var printedTotal *decimal.Decimal
	if printed != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(printed, "$"), ",", ""))
		if err != nil {
			fmt.Fprintf(stderr, "Error: -printed must be an amount, got %q\n", printed)
			return 2
		}
		printedTotal = &d
	}

	sub, err := intake.ReadFile(policyPath)
	if err != nil {
		return fail(stderr, err)
	}

	a, err := bootstrap(bootOptions{store: save, logOut: stderr})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	req := service.QuoteRequest{
		Policy:         sub.Policy,
		PrintedTotal:   sub.PrintedTotal,
		SourceDocument: sub.SourceDocument,
	}
	if printedTotal != nil {
		req.PrintedTotal = printedTotal
	}
	if noBroker {
		include := false
		req.IncludeBroker = &include
	}

	ctx := context.Background()
	var q *service.Quote
	if save {
		q, err = a.quotes.RateAndSave(ctx, req)
	} else {
		q, err = a.quotes.Rate(ctx, req)
	}
	if q != nil {
		if jsonOutput {
			out, encErr := export.Encode(q.Result, true)
			if encErr != nil {
				return fail(stderr, encErr)
			}
			fmt.Fprintln(stdout, string(out))
		} else {
			printQuote(stdout, q)
		}
	}
	if err != nil {
		return fail(stderr, err)
	}

	if exportDir != "" {
		path, err := export.WriteTimestamped(q.Result, exportDir)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "Exported to:     %s\n", path)
	}
	return 0
}

func printQuote(w io.Writer, q *service.Quote) {
	res := q.Result
	fmt.Fprintf(w, "Insured:         %s\n", res.Policy.InsuredName)
	fmt.Fprintf(w, "State / program: %s / %s\n", res.Policy.State, res.Metadata[model.MetaProgram])
	fmt.Fprintf(w, "Edition:         %s\n", res.Metadata[model.MetaEditionCode])
	if breakdown, ok := res.Factors[model.FactorPerVehicleBreakdown].([]model.VehicleBreakdown); ok {
		for _, b := range breakdown {
			floor := ""
			if b.MinimumApplied {
				floor = " (minimum)"
			}
			fmt.Fprintf(w, "  vehicle %d %s: %s%s\n", b.VehicleIndex, b.VIN, b.RatePerUnit.StringFixed(2), floor)
		}
	}
	fmt.Fprintf(w, "Premium:         %s\n", res.PremiumSubtotal.StringFixed(2))
	if q.MinimumApplied != model.MinimumNone {
		fmt.Fprintf(w, "Minimum applied: %s\n", q.MinimumApplied)
	}
	fmt.Fprintf(w, "Fees:            %s (policy %s, uw %s, broker %s)\n", res.FeesTotal.StringFixed(2),
		q.Fees.PolicyFee.StringFixed(2), q.Fees.UWFee.StringFixed(2), q.Fees.BrokerFee.StringFixed(2))
	fmt.Fprintf(w, "Taxes:           %s (slt %s, stamp %s, fire marshal %s, other %s)\n", res.TaxesTotal.StringFixed(2),
		q.Taxes.SLT.StringFixed(2), q.Taxes.Stamp.StringFixed(2), q.Taxes.FireMarshal.StringFixed(2), q.Taxes.Other.StringFixed(2))
	fmt.Fprintf(w, "AL total:        %s\n", res.ALTotal.StringFixed(2))
	if res.ReconciliationDelta != nil {
		fmt.Fprintf(w, "Reconciliation:  %s (delta %s)\n", res.ReconciliationStatus, res.ReconciliationDelta.StringFixed(2))
	} else {
		fmt.Fprintf(w, "Reconciliation:  %s\n", res.ReconciliationStatus)
	}
	if q.Saved {
		fmt.Fprintf(w, "Saved as:        %s\n", res.ID)
	}
}

func runHistoryCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("history", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	limit := cmd.Int("limit", 10, "Number of calculations to list")
	out := cmd.String("out", "", "Also write the listed calculations to this batch file")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *limit < 1 {
		fmt.Fprintln(stderr, "Error: -limit must be positive")
		return 2
	}

	a, err := bootstrap(bootOptions{store: true, logOut: stderr})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()
	ctx := context.Background()

	items, total, err := a.calcs.List(ctx, 1, *limit)
	if err != nil {
		return fail(stderr, err)
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "No calculations stored.")
		return 0
	}
	fmt.Fprintf(stdout, "%-36s  %-19s  %-5s  %12s  %-12s  %s\n", "ID", "TIMESTAMP", "STATE", "AL TOTAL", "STATUS", "INSURED")
	for _, it := range items {
		fmt.Fprintf(stdout, "%-36s  %-19s  %-5s  %12s  %-12s  %s\n",
			it.ID, it.Timestamp, it.State, it.ALTotal, it.ReconciliationStatus, it.InsuredName)
	}
	fmt.Fprintf(stdout, "%d of %d calculations\n", len(items), total)

	if *out != "" {
		results, err := a.calcs.Recent(ctx, *limit)
		if err != nil {
			return fail(stderr, err)
		}
		if err := export.WriteBatch(results, *out, true); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "Wrote %d calculations to %s\n", len(results), *out)
	}
	return 0
}

func runShowCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("show", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	id := cmd.String("id", "", "Calculation ID (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *id == "" {
		fmt.Fprintln(stderr, "Error: -id is required")
		return 2
	}

	a, err := bootstrap(bootOptions{store: true, logOut: stderr})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	res, err := a.calcs.Get(context.Background(), *id)
	if err != nil {
		return fail(stderr, err)
	}
	out, err := export.Encode(res, true)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

func runExportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("export", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var (
		id      string
		out     string
		summary bool
	)
	cmd.StringVar(&id, "id", "", "Calculation ID (REQUIRED)")
	cmd.StringVar(&out, "out", "", "Output file, or a directory for a timestamped name (REQUIRED)")
	cmd.BoolVar(&summary, "summary", false, "Write the compact summary instead of the full result")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" || out == "" {
		fmt.Fprintln(stderr, "Error: -id and -out are required")
		return 2
	}

	a, err := bootstrap(bootOptions{store: true, logOut: stderr})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	file, err := a.calcs.Export(context.Background(), id, summary)
	if err != nil {
		return fail(stderr, err)
	}
	path := out
	if info, statErr := os.Stat(out); statErr == nil && info.IsDir() {
		path = filepath.Join(out, file.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fail(stderr, apperr.Exportf("failed to create export directory: %v", err))
	}
	if err := os.WriteFile(path, file.Content, 0o644); err != nil {
		return fail(stderr, apperr.Exportf("failed to write JSON file: %v", err))
	}
	fmt.Fprintf(stdout, "Exported %s to %s\n", id, path)
	return 0
}

func runImportCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("import", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	in := cmd.String("in", "", "Exported calculation JSON file (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(stderr, "Error: -in is required")
		return 2
	}

	md, err := export.ReadMetadata(*in)
	if err != nil {
		return fail(stderr, err)
	}
	if md == nil {
		return fail(stderr, apperr.Exportf("%s is not a calculation export", *in))
	}

	a, err := bootstrap(bootOptions{store: true, logOut: stderr})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	res, err := export.ReadJSON(*in, a.cfg.Settings.Tolerance)
	if err != nil {
		return fail(stderr, err)
	}
	ids, err := a.calcs.Import(context.Background(), []*model.CalculationResult{res})
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "Imported %s (%s, AL total %s) as %s\n", *in, md.InsuredName, md.ALTotal, ids[0])
	return 0
}

func runTablesCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("tables", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	a, err := bootstrap(bootOptions{logOut: stderr})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	ed := a.tabs.Edition()
	fmt.Fprintln(stdout, loader.Summary(a.tables))
	if ed.Fingerprint != "" {
		fmt.Fprintf(stdout, "source %s (blake2b %s)\n", ed.Source, ed.Fingerprint)
	}
	fmt.Fprintf(stdout, "settings: %s\n", a.cfg.Settings)
	for section, n := range ed.SkippedRows {
		fmt.Fprintf(stdout, "skipped %d rows in %s\n", n, section)
	}

	fmt.Fprintln(stdout, "")
	fmt.Fprintf(stdout, "%-6s  %-8s  %-8s  %s\n", "STATE", "PROGRAM", "TAX", "ADMITTED")
	for _, plan := range ed.States {
		tax, admitted := "missing", ""
		if cfg, err := a.taxes.Get(plan.State); err == nil {
			tax = cfg.SLTRate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
			admitted = fmt.Sprintf("%t", cfg.Admitted)
		}
		fmt.Fprintf(stdout, "%-6s  %-8s  %-8s  %s\n", plan.State, plan.Program, tax, admitted)
	}
	return 0
}
