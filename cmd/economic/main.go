package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Kaladeen1717/economic/pkg/auth"
	"github.com/Kaladeen1717/economic/pkg/client"
	"github.com/Kaladeen1717/economic/pkg/filter"
	"github.com/Kaladeen1717/economic/pkg/logging"
	"github.com/Kaladeen1717/economic/pkg/output"
	"github.com/Kaladeen1717/economic/pkg/resources"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var (
		outputDir string
		authDir   string
		logLevel  string
		pretty    bool
	)

	root := &cobra.Command{
		Use:   "economic",
		Short: "Retrieve accounting data from the e-conomic API",
		Long: `economic retrieves paginated resources (booked invoice lines, booked
ledger entries, attached documents) from the e-conomic REST API and saves
them under the output directory as JSON, JSONL, or PDF files.

Authentication uses an app-secret / agreement-grant token pair, resolved
from flags, the ECONOMIC_* environment variables, or a credentials JSON
file. Pass --demo to use the vendor's public sandbox.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(logLevel),
				Pretty: pretty,
				Output: os.Stderr,
			})
		},
	}

	root.PersistentFlags().StringVar(&outputDir, "output-dir", output.DefaultDir, "Directory for output files")
	root.PersistentFlags().StringVar(&authDir, "auth-dir", auth.DefaultAuthDir, "Directory searched for credential files")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "Human-readable console logs instead of JSON")

	root.AddCommand(
		versionCmd(),
		listCredsCmd(&authDir),
		invoiceLinesCmd(&outputDir, &authDir),
		bookedEntriesCmd(&outputDir, &authDir),
		documentsCmd(&outputDir, &authDir),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("economic v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func listCredsCmd(authDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list-creds",
		Short: "List available credential files",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := auth.ListCredentialFiles(*authDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Printf("No credential files found in %s directory.\n", *authDir)
				return nil
			}

			fmt.Println("Available credential files:")
			for _, file := range files {
				if company := auth.CompanyName(file); company != "" {
					fmt.Printf("  - %s (Company: %s)\n", file, company)
				} else {
					fmt.Printf("  - %s\n", file)
				}
			}
			return nil
		},
	}
}

func invoiceLinesCmd(outputDir, authDir *string) *cobra.Command {
	var (
		credsFile  string
		demo       bool
		filterExpr string
		outputName string
	)

	cmd := &cobra.Command{
		Use:   "invoice-lines",
		Short: "Retrieve booked invoice lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, company, err := resolveAuth(demo, credsFile, *authDir)
			if err != nil {
				return err
			}

			retriever, err := resources.NewInvoiceLines(resources.Config{Credentials: creds})
			if err != nil {
				return err
			}
			defer retriever.Close()

			fmt.Println("Retrieving booked invoice lines...")
			lines, err := retriever.All(cmd.Context(), filter.Expr(filterExpr))
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Println("No invoice lines found")
				return nil
			}

			writer := output.NewWriter(*outputDir, company)
			name := outputName
			if name == "" {
				name = writer.TimestampName("invoice_lines", ".json")
			}
			path, err := writer.WriteJSON(lines, name)
			if err != nil {
				return err
			}

			fmt.Printf("Retrieved %d invoice lines\n", len(lines))
			fmt.Printf("Data saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&credsFile, "creds-file", "", "Path to credentials JSON file")
	cmd.Flags().BoolVar(&demo, "demo", false, "Use demo authentication instead of a credentials file")
	cmd.Flags().StringVar(&filterExpr, "filter", "", "Filter expression for the API query")
	cmd.Flags().StringVar(&outputName, "output", "", "Output filename (default: timestamp-based)")

	return cmd
}

func bookedEntriesCmd(outputDir, authDir *string) *cobra.Command {
	var (
		credsFile  string
		demo       bool
		startDate  string
		endDate    string
		filterExpr string
		outputName string
	)

	cmd := &cobra.Command{
		Use:   "booked-entries",
		Short: "Retrieve booked ledger entries for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, company, err := resolveAuth(demo, credsFile, *authDir)
			if err != nil {
				return err
			}

			retriever, err := resources.NewBookedEntries(resources.Config{Credentials: creds})
			if err != nil {
				return err
			}
			defer retriever.Close()

			f := filter.And(filter.DateRange(startDate, endDate), filter.Expr(filterExpr))

			fmt.Printf("Retrieving booked entries from %s to %s...\n", startDate, endDate)
			entries, err := retriever.All(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No booked entries found")
				return nil
			}

			writer := output.NewWriter(*outputDir, company)
			name := outputName
			if name == "" {
				name = writer.TimestampName("booked_entries", ".json")
			}
			path, err := writer.WriteJSON(entries, name)
			if err != nil {
				return err
			}

			fmt.Printf("Retrieved %d booked entries\n", len(entries))
			fmt.Printf("Data saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&credsFile, "creds-file", "", "Path to credentials JSON file")
	cmd.Flags().BoolVar(&demo, "demo", false, "Use demo authentication instead of a credentials file")
	cmd.Flags().StringVar(&startDate, "start-date", "2024-01-01", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", time.Now().Format("2006-01-02"), "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filterExpr, "filter", "", "Additional filter expression for the API query")
	cmd.Flags().StringVar(&outputName, "output", "", "Output filename (default: timestamp-based)")

	return cmd
}

func documentsCmd(outputDir, authDir *string) *cobra.Command {
	var (
		credsFile      string
		demo           bool
		documentNumber int
		voucherNumber  int
		accountingYear string
		getPDF         bool
		listDocs       bool
		filterExpr     string
		limit          int
		outputName     string
	)

	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Retrieve attached documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, company, err := resolveAuth(demo, credsFile, *authDir)
			if err != nil {
				return err
			}

			retriever, err := resources.NewDocuments(resources.Config{Credentials: creds})
			if err != nil {
				return err
			}
			defer retriever.Close()

			writer := output.NewWriter(*outputDir, company)

			switch {
			case voucherNumber > 0:
				return runVoucherSearch(cmd, retriever, writer, voucherNumber, accountingYear, getPDF, outputName)
			case listDocs:
				return runListDocuments(cmd, retriever, writer, filter.Expr(filterExpr), limit, outputName)
			default:
				return runSingleDocument(cmd, retriever, writer, documentNumber, getPDF, outputName)
			}
		},
	}

	cmd.Flags().StringVar(&credsFile, "creds-file", "", "Path to credentials JSON file")
	cmd.Flags().BoolVar(&demo, "demo", false, "Use demo authentication instead of a credentials file")
	cmd.Flags().IntVar(&documentNumber, "document-number", 0, "Number of the attached document to retrieve")
	cmd.Flags().IntVar(&voucherNumber, "voucher-number", 0, "Search for documents by voucher number")
	cmd.Flags().StringVar(&accountingYear, "accounting-year", "", "Accounting year for voucher search")
	cmd.Flags().BoolVar(&getPDF, "get-pdf", false, "Also retrieve and save the document's PDF file")
	cmd.Flags().BoolVar(&listDocs, "list-docs", false, "List available attached documents")
	cmd.Flags().StringVar(&filterExpr, "filter", "", "Filter expression when listing documents")
	cmd.Flags().IntVar(&limit, "limit", client.MaxPageSize, "Maximum documents to retrieve when listing")
	cmd.Flags().StringVar(&outputName, "output", "", "Output filename (default: document-number-based)")
	cmd.MarkFlagsOneRequired("document-number", "voucher-number", "list-docs")
	cmd.MarkFlagsMutuallyExclusive("document-number", "voucher-number", "list-docs")

	return cmd
}

func runSingleDocument(cmd *cobra.Command, retriever *resources.Documents, writer *output.Writer, number int, getPDF bool, outputName string) error {
	fmt.Printf("Retrieving attached document #%d...\n", number)
	doc, err := retriever.Get(cmd.Context(), number)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("document #%d not found", number)
		}
		return err
	}

	name := outputName
	if name == "" {
		name = writer.Name("attached_document", strconv.Itoa(number), ".jsonl")
	}
	path, err := writer.WriteLines([]client.Record{doc}, name)
	if err != nil {
		return err
	}
	fmt.Printf("Document info saved to: %s\n", path)

	if !getPDF {
		return nil
	}

	fmt.Println("Retrieving PDF file...")
	pdf, err := retriever.PDF(cmd.Context(), number)
	if err != nil {
		return err
	}

	pdfName := strings.TrimSuffix(outputName, ".jsonl")
	if pdfName == "" {
		pdfName = writer.Name("attached_document", strconv.Itoa(number), ".pdf")
	}
	pdfPath, err := writer.WriteBinary(pdf, pdfName)
	if err != nil {
		return err
	}
	fmt.Printf("PDF file saved to: %s\n", pdfPath)
	return nil
}

func runVoucherSearch(cmd *cobra.Command, retriever *resources.Documents, writer *output.Writer, voucherNumber int, accountingYear string, getPDF bool, outputName string) error {
	fmt.Printf("Searching for documents with voucher number %d...\n", voucherNumber)
	docs, err := retriever.FindByVoucherNumber(cmd.Context(), voucherNumber, accountingYear)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("no documents found for voucher #%d", voucherNumber)
		}
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("No documents found for voucher #%d\n", voucherNumber)
		return nil
	}

	name := outputName
	if name == "" {
		name = writer.Name("voucher", strconv.Itoa(voucherNumber), ".jsonl")
	}
	path, err := writer.WriteLines(docs, name)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d document(s) for voucher #%d\n", len(docs), voucherNumber)
	fmt.Printf("Document list saved to: %s\n", path)

	fmt.Println("\nAttached documents for this voucher:")
	for _, doc := range docs {
		fmt.Printf("  - Document #%s: %s\n", recordNumber(doc), recordNote(doc))
	}

	switch {
	case getPDF && len(docs) == 1:
		docNumber, ok := recordNumberInt(docs[0])
		if !ok {
			return errors.New("document record has no usable number field")
		}
		fmt.Printf("\nRetrieving PDF for document #%d...\n", docNumber)
		pdf, err := retriever.PDF(cmd.Context(), docNumber)
		if err != nil {
			return err
		}
		pdfPath, err := writer.WriteBinary(pdf, writer.Name("voucher", strconv.Itoa(voucherNumber), ".pdf"))
		if err != nil {
			return err
		}
		fmt.Printf("PDF file saved to: %s\n", pdfPath)
	case getPDF && len(docs) > 1:
		fmt.Println("\nMultiple documents found. To retrieve a specific PDF, run the command again with --document-number instead of --voucher-number.")
	}

	return nil
}

func runListDocuments(cmd *cobra.Command, retriever *resources.Documents, writer *output.Writer, f filter.Expr, limit int, outputName string) error {
	fmt.Printf("Retrieving list of attached documents (limit: %d)...\n", limit)
	docs, err := retriever.List(cmd.Context(), f, limit)
	if err != nil {
		if client.IsNotFound(err) {
			return errors.New("no attached documents found")
		}
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No attached documents found")
		return nil
	}

	name := outputName
	if name == "" {
		name = writer.Name("attached_documents_list", "", ".jsonl")
	}
	path, err := writer.WriteLines(docs, name)
	if err != nil {
		return err
	}

	fmt.Printf("Retrieved %d attached documents\n", len(docs))
	fmt.Printf("Document list saved to: %s\n", path)

	fmt.Println("\nAvailable document numbers:")
	preview := docs
	if len(preview) > 10 {
		preview = preview[:10]
	}
	for _, doc := range preview {
		fmt.Printf("  - %s: %s\n", recordNumber(doc), recordNote(doc))
	}
	if len(docs) > 10 {
		fmt.Printf("  ... and %d more (see the saved file for the complete list)\n", len(docs)-10)
	}

	return nil
}

// resolveAuth turns the auth flags into credentials plus the company
// identifier used for file naming. Demo mode overrides the credential file
// but keeps a derived company name as "<name>_demo".
func resolveAuth(demo bool, credsFile, authDir string) (*auth.Credentials, string, error) {
	company := ""
	if credsFile != "" {
		company = auth.CompanyName(credsFile)
	}

	if demo {
		fmt.Println("Using demo authentication")
		if company == "" {
			company = auth.DemoToken
		} else {
			company += "_" + auth.DemoToken
		}
		return auth.Demo(), company, nil
	}

	if credsFile == "" {
		// No file given: the environment is the only remaining source.
		creds, err := auth.Resolve("", "", "")
		if err != nil {
			return nil, "", err
		}
		fmt.Println("Using credentials from environment")
		return creds, company, nil
	}

	path := auth.ResolvePath(credsFile, authDir)
	fmt.Printf("Using credentials from file: %s\n", path)
	creds, err := auth.Resolve("", "", path)
	if err != nil {
		return nil, "", err
	}
	return creds, company, nil
}

// errorMessage maps an error to the single human-readable line printed to
// the user. Resource-specific not-found messages are produced where the
// resource is known; auth failures get a generic classification here.
func errorMessage(err error) string {
	switch {
	case client.IsUnauthorized(err):
		return "Unauthorized - invalid API credentials"
	case client.IsForbidden(err):
		return "Forbidden - insufficient permissions"
	default:
		return err.Error()
	}
}

// recordNumber renders a record's number field for display.
func recordNumber(record client.Record) string {
	if n, ok := recordNumberInt(record); ok {
		return strconv.Itoa(n)
	}
	return "unknown"
}

// recordNumberInt extracts a record's number field. JSON decoding yields
// float64 for numbers; document numbers are integral in practice.
func recordNumberInt(record client.Record) (int, bool) {
	switch v := record["number"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// recordNote renders a record's note field for display.
func recordNote(record client.Record) string {
	if note, ok := record["note"].(string); ok && note != "" {
		return note
	}
	return "No note"
}
