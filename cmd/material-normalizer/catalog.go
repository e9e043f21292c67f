// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/internal/catalog"
	"github.com/pdiddy/material-normalizer/internal/emit"
	"github.com/pdiddy/material-normalizer/internal/units"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the material catalog (ingest, search, show, export)",
	Long: `Catalog manages a local SQLite index built from canonical records.
Use subcommands to ingest records, search them, show one, or export.`,
}

// --- ingest subcommand ---

var catalogIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index canonical records into the catalog",
	Long: `Ingest reads canonical records from the records directory into a SQLite
database with full-text indexing, and writes export.yaml. Unchanged files
are skipped on subsequent runs; records whose file was removed are dropped.`,
	RunE: runCatalogIngest,
}

func runCatalogIngest(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by text, category, and property range",
	Long: `Search combines a full-text query over name, category, applications,
and industries with a category filter and a property range filter.
Bounds may carry a unit; they are converted to the property's canonical unit.`,
	Example: `  material-normalizer catalog search marine
  material-normalizer catalog search --category metal --property density --min "7000 kg/m3"`,
	RunE: runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, or --property")
	}

	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []catalog.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-30s  %-12s  %-12s  %s\n", "Rank", "Material", "Category", "Formula", "Value")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i, r := range results {
		value := ""
		if m := r.Measurement; m != nil {
			value = units.FormatQuantity(units.Quantity{Value: m.Value, Min: m.Min, Max: m.Max, Unit: unitOf(m.Unit)})
		}
		fmt.Fprintf(w, "%-4d  %-30s  %-12s  %-12s  %s\n", i+1, truncate(r.Name, 30), r.Category, truncate(r.Formula, 12), value)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func unitOf(symbol string) *units.Unit {
	u, _ := units.Lookup(symbol)
	return u
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// --- show subcommand ---

var catalogShowCmd = &cobra.Command{
	Use:   "show SLUG",
	Short: "Print one material record",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	data, err := emit.Render(rec, types.OutputYAML, version)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// --- runs subcommand ---

var catalogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingest runs",
	RunE:  runCatalogRuns,
}

func runCatalogRuns(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(cmd.OutOrStdout()).Encode(runs)
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	Long: `Export writes the full catalog (or a filtered subset) to
<catalog-dir>/export.yaml or export.json. Supports the same filter
flags as search for partial exports.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openCatalog() (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(cfg.Catalog, logger)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (catalog.QueryOptions, error) {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	category, _ := cmd.Flags().GetString("category")
	property, _ := cmd.Flags().GetString("property")
	minText, _ := cmd.Flags().GetString("min")
	maxText, _ := cmd.Flags().GetString("max")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := catalog.QueryOptions{
		Query:      queryText,
		Category:   category,
		Property:   property,
		MaxResults: limit,
	}
	if property == "" {
		if minText != "" || maxText != "" {
			return opts, fmt.Errorf("--min and --max need --property")
		}
		return opts, nil
	}

	field, err := catalog.ResolveProperty(property)
	if err != nil {
		return opts, err
	}
	if minText != "" {
		v, err := catalog.ParseBound(field, minText)
		if err != nil {
			return opts, err
		}
		opts.Min = &v
	}
	if maxText != "" {
		v, err := catalog.ParseBound(field, maxText)
		if err != nil {
			return opts, err
		}
		opts.Max = &v
	}
	return opts, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "full-text search query")
	cmd.Flags().String("category", "", "filter by category")
	cmd.Flags().String("property", "", "filter by a property or setting, e.g. density or settings.fluence")
	cmd.Flags().String("min", "", "lower bound for --property, optionally with a unit")
	cmd.Flags().String("max", "", "upper bound for --property, optionally with a unit")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("catalog-dir", "catalog", "directory holding catalog.db and exports")
	catalogCmd.PersistentFlags().String("records-dir", "normalized", "directory of canonical records to ingest")
	catalogCmd.PersistentFlags().Int("max-results", 20, "default maximum number of search results")

	addFilterFlags(catalogSearchCmd)
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	catalogShowCmd.Flags().Bool("json", false, "output the record as JSON")

	catalogRunsCmd.Flags().Int("limit", 10, "number of runs to list")

	addFilterFlags(catalogExportCmd)
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	catalogCmd.AddCommand(catalogIngestCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogRunsCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
