// Package applycmd reconciles a catalog file into the registry.
package applycmd

import (
	"context"
	"fmt"
	"sort"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"
	"defsync/internal/catalog"
	"defsync/internal/metrics"
	"defsync/internal/reconcile"
	"defsync/internal/support"
	"defsync/internal/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func Cmd() *cobra.Command {
	var (
		flags cmdutil.RegistryFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the catalog into the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalogPath, err := flags.ResolveCatalog()
			if err != nil {
				return err
			}
			dbPath, err := flags.ResolveDatabase()
			if err != nil {
				return err
			}
			return run(cmd.Context(), catalogPath, dbPath, force)
		},
	}

	flags.Bind(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Update default versions even for definitions in use")
	return cmd
}

func run(ctx context.Context, catalogPath, dbPath string, force bool) (err error) {
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	tracerProvider := sdktrace.NewTracerProvider()
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	op := telemetry.Start(ctx, tracerProvider.Tracer("defsync"), "apply")
	defer func() { op.End(err) }()

	var cat *catalog.Catalog
	err = op.RunStep("load-catalog", func(context.Context) error {
		var stepErr error
		cat, stepErr = catalog.Load(catalogPath)
		return stepErr
	})
	if err != nil {
		return err
	}

	var store *sqlite.Store
	err = op.RunStep("open-registry", func(context.Context) error {
		var stepErr error
		store, stepErr = sqlite.Open(dbPath)
		return stepErr
	})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := &reconcile.Engine{
		Catalog:  cat,
		Store:    store,
		Ranges:   store,
		Recorder: reconcile.NewRecorder(metrics.NewSink(meterProvider.Meter("defsync"))),
		Support:  support.New(store),
	}
	err = op.RunStep("reconcile", func(stepCtx context.Context) error {
		return engine.Apply(stepCtx, force)
	})
	if err != nil {
		return err
	}

	printSummary(ctx, reader, cat.Len())
	return nil
}

// printSummary collects the run's outcome counters and renders them.
func printSummary(ctx context.Context, reader *sdkmetric.ManualReader, total int) {
	counts, failed := outcomeCounts(ctx, reader)

	if failed == 0 {
		fmt.Println(ui.SuccessMsg("Applied catalog: %d definitions processed.", total))
	} else {
		fmt.Println(ui.WarnMsg("Applied catalog: %d definitions processed, %d failed.", total, failed))
	}

	if len(counts) == 0 {
		return
	}
	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)

	pairs := make([]ui.Pair, 0, len(outcomes))
	for _, outcome := range outcomes {
		pairs = append(pairs, ui.KV(outcome, fmt.Sprintf("%d", counts[outcome])))
	}
	fmt.Print(ui.KeyValues("  ", pairs...))
}

// outcomeCounts reads the processed-definitions counter back out of the
// manual reader, keyed by outcome tag.
func outcomeCounts(ctx context.Context, reader *sdkmetric.ManualReader) (map[string]int64, int64) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return nil, 0
	}

	counts := make(map[string]int64)
	var failed int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != reconcile.MetricProcessed {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				outcome := "unknown"
				if v, ok := dp.Attributes.Value(attribute.Key("outcome")); ok {
					outcome = v.AsString()
				}
				counts[outcome] += dp.Value
				if v, ok := dp.Attributes.Value(attribute.Key("status")); ok && v.AsString() == "failed" {
					failed += dp.Value
				}
			}
		}
	}
	return counts, failed
}
