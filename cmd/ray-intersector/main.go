// ray-intersector casts rays from scene transforms against the visible meshes
// of a scene and manages the stored bindings that drive output locators.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"ray-intersector/aim"
	"ray-intersector/binding"
	"ray-intersector/command"
	"ray-intersector/intersector"
	"ray-intersector/scene"
	"ray-intersector/scenefile"

	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudmetrics "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	googleopt "google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/prototext"
)

var cmdRoot = &cobra.Command{
	Use:               "ray-intersector",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	sceneFile            string
	dataDir              string
	parallelism          int
	monitoring           bool
	monitoringProject    string
	monitoringTraceRatio float64
	cpuProfile           string
)

// Run after the command finishes, in reverse order.
var cleanups []func()

func init() {
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cmdRoot.PersistentFlags().StringVar(&sceneFile, "scene", "", "Scene file to load.  Local path or gs://bucket/object.")
	cmdRoot.PersistentFlags().StringVar(&dataDir, "data-dir", "ray-intersector-data", "Directory for the binding database.")
	cmdRoot.PersistentFlags().IntVar(&parallelism, "parallelism", runtime.NumCPU(), "Maximum number of ray queries to run at once.")
	cmdRoot.PersistentFlags().BoolVar(&monitoring, "monitoring", false, "Enable monitoring?")
	cmdRoot.PersistentFlags().StringVar(&monitoringProject, "monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	cmdRoot.PersistentFlags().Float64Var(&monitoringTraceRatio, "monitoring-trace-ratio", 0.0001, "What ratio of traces should be exported?")
	cmdRoot.PersistentFlags().StringVar(&cpuProfile, "cpu-profile", "", "write cpu profile to `file`")
}

func setup(cmd *cobra.Command, args []string) error {
	// glog complains about logging before flag.Parse; cobra has already
	// parsed our copy of its flags.
	flag.CommandLine.Parse([]string{})

	glog.Infof("flags:")
	glog.Infof("scene: %q", sceneFile)
	glog.Infof("data-dir: %q", dataDir)
	glog.Infof("parallelism: %d", parallelism)

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		cleanups = append(cleanups, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if err := intersector.RegisterMetrics(); err != nil {
		return fmt.Errorf("while registering metrics: %w", err)
	}

	if monitoring {
		metricsOpts := []cloudmetrics.Option{}
		traceOpts := []cloudtrace.Option{}
		if monitoringProject != "" {
			metricsOpts = append(metricsOpts, cloudmetrics.WithProjectID(monitoringProject))
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(monitoringProject))
		}

		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(monitoringTraceRatio)))
		if err != nil {
			return fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
		}
		cleanups = append(cleanups, traceShutdown)

		pusher, err := cloudmetrics.InstallNewPipeline(metricsOpts)
		if err != nil {
			return fmt.Errorf("while installing Cloud Metrics OpenTelemetry meter pipeline: %w", err)
		}
		cleanups = append(cleanups, func() { pusher.Stop(context.Background()) })

		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID:         monitoringProject,
			MetricPrefix:      "ray-intersector",
			ReportingInterval: 60 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("while initializing Stackdriver metrics exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return fmt.Errorf("while starting Stackdriver metrics exporter: %w", err)
		}
		cleanups = append(cleanups, func() {
			exporter.StopMetricsExporter()
			exporter.Flush()
		})
	}

	return nil
}

func loadScene(ctx context.Context) (*scene.Graph, error) {
	if sceneFile == "" {
		return nil, fmt.Errorf("--scene is required")
	}
	return scenefile.LoadScene(ctx, sceneFile, googleopt.WithGRPCConnectionPool(1))
}

var cmdCast = &cobra.Command{
	Use:   "cast",
	Short: "Cast a single ray from a transform and print where it lands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		axis, err := aim.ParseAxis(castAxis)
		if err != nil {
			return err
		}

		g, err := loadScene(ctx)
		if err != nil {
			return err
		}

		src, ok := g.Node(castTransform)
		if !ok {
			return fmt.Errorf("%w: %q", scene.ErrNoSuchNode, castTransform)
		}

		res := intersector.New().Intersect(ctx, src.World, axis, g.Meshes())
		if res.Err != nil {
			glog.Warningf("Query from %q fell back: %v", castTransform, res.Err)
		}
		fmt.Printf("%g %g %g hit=%v\n", res.Point[0], res.Point[1], res.Point[2], res.Hit)
		return nil
	},
}

var (
	castTransform string
	castAxis      string
)

func init() {
	cmdCast.Flags().StringVar(&castTransform, "transform", "", "Transform or joint to cast from.")
	cmdCast.Flags().StringVar(&castAxis, "axis", aim.Default.String(), "Axis to cast along: X, Y, Z, -X, -Y, -Z or 0-5.")
}

var cmdCreate = &cobra.Command{
	Use:   "create",
	Short: "Create bindings for the given (or selected) transforms.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		axis, err := aim.ParseAxis(createAxis)
		if err != nil {
			return err
		}

		g, err := loadScene(ctx)
		if err != nil {
			return err
		}

		store, err := binding.Open(dataDir)
		if err != nil {
			return fmt.Errorf("while opening binding store: %w", err)
		}
		defer store.Close()

		created, err := command.CreateBindings(ctx, g, store, command.Options{
			Transforms: createTransforms,
			Name:       createName,
			Axis:       axis,
		})
		for _, name := range created {
			fmt.Println(name)
		}
		return err
	},
}

var (
	createTransforms []string
	createName       string
	createAxis       string
)

func init() {
	cmdCreate.Flags().StringArrayVarP(&createTransforms, "transforms", "t", nil, "Source transform; may be repeated.  Defaults to the scene's selection.")
	cmdCreate.Flags().StringVarP(&createName, "name", "n", command.DefaultName, "Name of the first binding.")
	cmdCreate.Flags().StringVarP(&createAxis, "axis", "a", aim.Default.String(), "Axis to cast along: X, Y, Z, -X, -Y, -Z or 0-5.")
}

var cmdEvaluate = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate every stored binding against the scene.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		g, err := loadScene(ctx)
		if err != nil {
			return err
		}

		store, err := binding.Open(dataDir)
		if err != nil {
			return fmt.Errorf("while opening binding store: %w", err)
		}
		defer store.Close()

		bs, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("while listing bindings: %w", err)
		}

		// Scene files don't carry the locators that create adds.
		for _, b := range bs {
			if _, ok := g.Node(b.Output); ok {
				continue
			}
			if _, err := g.CreateNode(b.Output, scene.KindLocator, nil); err != nil {
				return fmt.Errorf("while creating output locator for binding %q: %w", b.Name, err)
			}
		}

		results, err := intersector.New(intersector.WithParallelism(parallelism)).EvaluateBindings(ctx, g, bs)
		if err != nil {
			return err
		}

		for i, res := range results {
			if res.Err != nil {
				glog.Warningf("Binding %q fell back: %v", bs[i].Name, res.Err)
			}
			fmt.Printf("%s %g %g %g hit=%v\n", bs[i].Output, res.Point[0], res.Point[1], res.Point[2], res.Hit)
		}
		return nil
	},
}

var cmdList = &cobra.Command{
	Use:   "list",
	Short: "List stored bindings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store, err := binding.Open(dataDir)
		if err != nil {
			return fmt.Errorf("while opening binding store: %w", err)
		}
		defer store.Close()

		bs, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("while listing bindings: %w", err)
		}
		for _, b := range bs {
			fmt.Println(prototext.Format(binding.Record(b)))
		}
		return nil
	},
}

var cmdDelete = &cobra.Command{
	Use:   "delete NAME...",
	Short: "Delete stored bindings.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store, err := binding.Open(dataDir)
		if err != nil {
			return fmt.Errorf("while opening binding store: %w", err)
		}
		defer store.Close()

		for _, name := range args {
			if err := store.Delete(ctx, name); err != nil {
				return fmt.Errorf("while deleting binding %q: %w", name, err)
			}
		}
		return nil
	},
}

func main() {
	glog.CopyStandardLogTo("INFO")

	cmdRoot.AddCommand(cmdCast, cmdCreate, cmdEvaluate, cmdList, cmdDelete)

	err := cmdRoot.Execute()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	glog.Flush()

	if err != nil {
		os.Exit(1)
	}
}
