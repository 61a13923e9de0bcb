// EmailForge CLI - email HTML synthesis and compliance tool
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	gomjml "github.com/preslavrachev/gomjml/mjml"

	"github.com/emailforge/emailforge/pkg/db"
	"github.com/emailforge/emailforge/pkg/design"
	"github.com/emailforge/emailforge/pkg/engine"
	"github.com/emailforge/emailforge/pkg/mail"
	"github.com/emailforge/emailforge/pkg/synth"
	"github.com/emailforge/emailforge/pkg/validate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		generateCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "fix":
		fixCmd(os.Args[2:])
	case "import":
		importCmd(os.Args[2:])
	case "send":
		sendCmd(os.Args[2:])
	case "version":
		fmt.Println("emailforge v0.1.0")
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`EmailForge - Email HTML Synthesis and Compliance CLI

Usage:
  emailforge <command> [options]

Commands:
  generate   Synthesize email HTML from a design model
  validate   Run the compliance report on an HTML file
  fix        Auto-repair an HTML file and report what changed
  import     Render an MJML template and validate the result
  send       Send an HTML file via SMTP after the quality gate
  version    Show version
  help       Show this help

Examples:
  emailforge generate -model=design.json -out=email.html
  emailforge validate -file=email.html -json
  emailforge validate -file=email.html -save
  emailforge fix -file=email.html -out=fixed.html
  emailforge import -file=welcome.mjml -out=email.html
  emailforge send -to=test@example.com -file=email.html

Environment Variables:
  SMTP_HOST       SMTP relay host (default: smtp.gmail.com)
  SMTP_PORT       SMTP relay port (default: 587)
  SMTP_USERNAME   SMTP username
  SMTP_PASSWORD   SMTP password or app password
  SMTP_FROM       From address (default: SMTP_USERNAME)`)
}

func generateCmd(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	modelFile := fs.String("model", "", "Design model JSON file (default: starter model)")
	outFile := fs.String("out", "", "Output file (default: stdout)")
	title := fs.String("title", "", "Document title")
	noOutlook := fs.Bool("no-outlook", false, "Skip MSO conditional comments")
	noDark := fs.Bool("no-dark", false, "Skip dark-mode styles")
	noResponsive := fs.Bool("no-responsive", false, "Skip the responsive breakpoint")
	fs.Parse(args)

	var model *design.Model
	if *modelFile != "" {
		content, err := os.ReadFile(*modelFile)
		if err != nil {
			fatal("read model: %v", err)
		}
		model = &design.Model{}
		if err := json.Unmarshal(content, model); err != nil {
			fatal("parse model: %v", err)
		}
	}

	opts := []synth.Option{
		synth.WithOutlookFixes(!*noOutlook),
		synth.WithDarkMode(!*noDark),
		synth.WithResponsive(!*noResponsive),
	}
	if *title != "" {
		opts = append(opts, synth.WithTitle(*title))
	}

	res, err := engine.Default().Generate(model, opts...)
	if err != nil {
		fatal("generate: %v", err)
	}

	writeOutput(*outFile, res.HTML)
	fmt.Fprintf(os.Stderr, "quality %d, accessibility %d (%s), spam risk %d\n",
		res.Metrics.QualityScore, res.Metrics.Accessibility.Score,
		res.Metrics.Accessibility.Level, res.Metrics.SpamRisk.Score)
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "", "HTML file to validate")
	asJSON := fs.Bool("json", false, "Print the full report as JSON")
	save := fs.Bool("save", false, "Persist the report to the report database")
	dbPath := fs.String("db", "./.data/emailforge.db", "Report database path (with -save)")
	fs.Parse(args)

	if *file == "" {
		fatal("-file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fatal("read file: %v", err)
	}

	m, err := engine.Default().Validate(string(content))
	if err != nil {
		fatal("validate: %v", err)
	}

	if *save {
		saveReport(*dbPath, m)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(m, "", "  ")
		fmt.Println(string(out))
	} else {
		printReport(*file, m)
	}

	if len(m.Validation.Issues) > 0 {
		os.Exit(1)
	}
}

func saveReport(path string, m *validate.Metrics) {
	database, err := db.Open(path)
	if err != nil {
		fatal("open report database: %v", err)
	}
	defer database.Close()

	if err := db.NewReportStore(database).Save(context.Background(), "", m); err != nil {
		fatal("save report: %v", err)
	}
	fmt.Fprintf(os.Stderr, "saved report %s\n", m.ReportID)
}

func printReport(file string, m *validate.Metrics) {
	fmt.Printf("%s\n", file)
	fmt.Printf("  quality        %d\n", m.QualityScore)
	fmt.Printf("  accessibility  %d (%s)\n", m.Accessibility.Score, m.Accessibility.Level)
	fmt.Printf("  spam risk      %d\n", m.SpamRisk.Score)
	fmt.Printf("  compatibility  ")
	for i, client := range validate.Clients {
		mark := "✓"
		if !m.Compatibility[client] {
			mark = "✗"
		}
		if i > 0 {
			fmt.Print("  ")
		}
		fmt.Printf("%s %s", mark, client)
	}
	fmt.Println()

	for _, issue := range m.Validation.Issues {
		printIssue(issue)
	}
	for _, issue := range m.Validation.Warnings {
		printIssue(issue)
	}
}

func printIssue(issue validate.Issue) {
	loc := ""
	if issue.Line > 0 {
		loc = fmt.Sprintf(" (line %d)", issue.Line)
	}
	fix := ""
	if issue.AutoFixable {
		fix = " [auto-fixable]"
	}
	fmt.Printf("  %-8s %s%s%s\n", issue.Severity, issue.Message, loc, fix)
}

func fixCmd(args []string) {
	fs := flag.NewFlagSet("fix", flag.ExitOnError)
	file := fs.String("file", "", "HTML file to repair")
	outFile := fs.String("out", "", "Output file (default: overwrite input)")
	fs.Parse(args)

	if *file == "" {
		fatal("-file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fatal("read file: %v", err)
	}

	res, err := engine.Default().AutoFix(string(content))
	if err != nil {
		fatal("fix: %v", err)
	}

	target := *outFile
	if target == "" {
		target = *file
	}
	if err := os.WriteFile(target, []byte(res.HTML), 0644); err != nil {
		fatal("write output: %v", err)
	}

	s := res.Summary
	fmt.Printf("%s: %d repair(s) applied, quality now %d\n", target, s.Total(), res.Metrics.QualityScore)
	if s.TagsClosed > 0 {
		fmt.Printf("  closed %d tag(s)\n", s.TagsClosed)
	}
	if s.StructuralFixes > 0 {
		fmt.Printf("  removed %d stray close tag(s)\n", s.StructuralFixes)
	}
	if s.CSSNormalizations > 0 {
		fmt.Printf("  normalized %d style attribute(s)\n", s.CSSNormalizations)
	}
	if s.AccessibilityFixes > 0 {
		fmt.Printf("  added %d alt attribute(s)\n", s.AccessibilityFixes)
	}
	if s.OutlookHardening > 0 {
		fmt.Printf("  hardened %d Outlook structure(s)\n", s.OutlookHardening)
	}
	for _, u := range s.Unresolved {
		fmt.Printf("  unresolved: %s\n", u)
	}
}

func importCmd(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "MJML file to render")
	outFile := fs.String("out", "", "Output file (default: stdout)")
	fs.Parse(args)

	if *file == "" {
		fatal("-file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fatal("read file: %v", err)
	}

	html, err := gomjml.Render(string(content))
	if err != nil {
		fatal("render mjml: %v", err)
	}

	m, err := engine.Default().Validate(html)
	if err != nil {
		fatal("validate rendered output: %v", err)
	}

	writeOutput(*outFile, html)
	fmt.Fprintf(os.Stderr, "rendered %d bytes, quality %d\n", len(html), m.QualityScore)
}

func sendCmd(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	to := fs.String("to", "", "Recipient email address")
	file := fs.String("file", "", "HTML file to send")
	subject := fs.String("subject", "EmailForge test", "Email subject")
	minQuality := fs.Int("min-quality", 70, "Quality gate threshold (0 disables)")
	fs.Parse(args)

	if *to == "" || *file == "" {
		fatal("-to and -file are required")
	}

	smtpCfg := mail.ConfigFromEnv()
	if smtpCfg.Username == "" || smtpCfg.Password == "" {
		fatal("SMTP_USERNAME and SMTP_PASSWORD environment variables required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		fatal("read file: %v", err)
	}
	html := string(content)

	svc := engine.Default()
	m, err := svc.Validate(html)
	if err != nil {
		fatal("validate: %v", err)
	}
	if *minQuality > 0 && m.QualityScore < *minQuality {
		fixed, err := svc.AutoFix(html)
		if err != nil {
			fatal("fix: %v", err)
		}
		if fixed.Metrics.QualityScore < *minQuality {
			fatal("quality score %d below the %d minimum after repair", fixed.Metrics.QualityScore, *minQuality)
		}
		fmt.Fprintf(os.Stderr, "repaired before send: %d fix(es), quality %d\n",
			fixed.Summary.Total(), fixed.Metrics.QualityScore)
		html = fixed.HTML
	}

	if err := mail.Send(smtpCfg, *to, *subject, html); err != nil {
		fatal("send: %v", err)
	}

	fmt.Printf("✓ Email sent to %s\n", *to)
}

func writeOutput(path, content string) {
	if path == "" {
		fmt.Println(content)
		return
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		fatal("write output: %v", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", path, len(content))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
