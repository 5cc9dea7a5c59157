package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/rizome-dev/fmdeploygo/pkg/benchmark"
	"github.com/rizome-dev/fmdeploygo/pkg/config"
	"github.com/rizome-dev/fmdeploygo/pkg/fmdeploy"
	"github.com/rizome-dev/fmdeploygo/pkg/models"
)

func main() {
	var (
		apiKey       = flag.String("key", os.Getenv("FMDEPLOY_API_KEY"), "Platform API key")
		baseURL      = flag.String("base-url", "", "Override the platform base URL")
		endpointName = flag.String("endpoint", "", "Endpoint name")

		deploy   = flag.Bool("deploy", false, "Deploy a model endpoint")
		modelID  = flag.String("model", "", "Model identifier, e.g. mistralai/Mistral-7B-v0.1")
		quant    = flag.String("quant", "none", "Quantization scheme: none, bitsandbytes, gptq, smoothquant, tensorrt-llm")
		numGPUs  = flag.Int("gpus", 1, "GPUs per instance (1, 4 or 8)")
		artifact = flag.String("artifact", "", "Local inference-code archive to stage")
		wait     = flag.Bool("wait", true, "Block until the endpoint is in service")

		invoke    = flag.Bool("invoke", false, "Invoke an endpoint once")
		prompt    = flag.String("prompt", "", "Prompt text")
		maxTokens = flag.Int("max-tokens", 256, "Maximum new tokens")
		temp      = flag.Float64("temp", 0.7, "Temperature")

		bench      = flag.Bool("benchmark", false, "Benchmark an endpoint")
		iterations = flag.Int("iterations", benchmark.DefaultIterations, "Benchmark iterations")
		suitePath  = flag.String("suite", "", "Benchmark suite YAML file")

		teardown = flag.Bool("delete", false, "Delete an endpoint")
		list     = flag.Bool("list", false, "List endpoints")

		verbose = flag.Bool("v", false, "Verbose logging")
	)

	flag.Parse()

	if *apiKey == "" {
		log.Fatal("API key required. Set FMDEPLOY_API_KEY or use -key flag")
	}

	zapCfg := zap.NewProductionConfig()
	if *verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := fmdeploy.NewZapLogger(zapLogger)

	opts := []fmdeploy.Option{fmdeploy.WithLogger(logger)}
	if *baseURL != "" {
		opts = append(opts, fmdeploy.WithBaseURL(*baseURL))
	}
	if stager := stagerFromEnv(); stager != nil {
		opts = append(opts, fmdeploy.WithArtifactStager(stager))
	}
	client := fmdeploy.NewClient(*apiKey, opts...)

	ctx := context.Background()

	switch {
	case *list:
		runList(ctx, client)
	case *deploy:
		runDeploy(ctx, client, *endpointName, *modelID, *quant, *numGPUs, *artifact, *wait)
	case *invoke:
		runInvoke(ctx, client, *endpointName, *prompt, *maxTokens, *temp)
	case *bench:
		runBenchmark(ctx, client, logger, *endpointName, *prompt, *maxTokens, *temp, *iterations)
	case *suitePath != "":
		runSuite(ctx, client, logger, *suitePath)
	case *teardown:
		if *endpointName == "" {
			log.Fatal("-delete requires -endpoint")
		}
		if err := client.DeleteEndpoint(ctx, *endpointName); err != nil {
			log.Fatalf("Teardown failed: %v", err)
		}
		fmt.Printf("Deleted endpoint %s\n", *endpointName)
	default:
		fmt.Println("Usage: fmdeploy-cli -deploy -model <id> [-quant gptq] [-gpus 4]")
		fmt.Println("       fmdeploy-cli -invoke -endpoint <name> -prompt <text>")
		fmt.Println("       fmdeploy-cli -benchmark -endpoint <name> -prompt <text>")
		fmt.Println("       fmdeploy-cli -suite suite.yaml")
		fmt.Println("       fmdeploy-cli -delete -endpoint <name>")
		fmt.Println("       fmdeploy-cli -list")
		flag.PrintDefaults()
	}
}

// stagerFromEnv builds an artifact stager when object-store credentials are
// present in the environment
func stagerFromEnv() fmdeploy.ArtifactStager {
	endpoint := os.Getenv("FMDEPLOY_STORE_ENDPOINT")
	if endpoint == "" {
		return nil
	}
	bucket := os.Getenv("FMDEPLOY_STORE_BUCKET")
	if bucket == "" {
		bucket = "fmdeploy-artifacts"
	}
	stager, err := fmdeploy.NewObjectStager(fmdeploy.ObjectStagerConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("FMDEPLOY_STORE_ACCESS_KEY"),
		SecretKey: os.Getenv("FMDEPLOY_STORE_SECRET_KEY"),
		UseSSL:    os.Getenv("FMDEPLOY_STORE_INSECURE") == "",
		Bucket:    bucket,
		Prefix:    "code",
	})
	if err != nil {
		log.Fatalf("Failed to configure artifact stager: %v", err)
	}
	return stager
}

func runList(ctx context.Context, client *fmdeploy.Client) {
	resp, err := client.ListEndpoints(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to list endpoints: %v", err)
	}

	fmt.Printf("Endpoints (%d):\n\n", len(resp.Endpoints))
	for _, ep := range resp.Endpoints {
		fmt.Printf("%-48s %-12s %s\n", ep.Name, ep.Status, ep.InstanceType)
	}
}

func runDeploy(ctx context.Context, client *fmdeploy.Client, endpointName, modelID, quant string, numGPUs int, artifact string, wait bool) {
	if modelID == "" {
		log.Fatal("-deploy requires -model")
	}

	preset, err := fmdeploy.PresetFor(modelID, fmdeploy.Quantization(quant), numGPUs)
	if err != nil {
		log.Fatalf("Invalid deployment parameters: %v", err)
	}

	if endpointName == "" {
		endpointName = fmdeploy.DefaultEndpointName("fmdeploy")
	}

	cfg := preset.DeployConfig(endpointName, wait)
	cfg.ArtifactPath = artifact

	endpoint, err := client.Deploy(ctx, cfg)
	if err != nil {
		log.Fatalf("Deployment failed: %v", err)
	}

	fmt.Printf("Endpoint %s is %s on %s\n", endpoint.Name, endpoint.Status, endpoint.InstanceType)
}

func runInvoke(ctx context.Context, client *fmdeploy.Client, endpointName, prompt string, maxTokens int, temp float64) {
	if endpointName == "" || prompt == "" {
		log.Fatal("-invoke requires -endpoint and -prompt")
	}

	resp, err := client.Invoke(ctx, endpointName, models.InvocationRequest{
		Inputs: prompt,
		Parameters: &models.GenerationParameters{
			MaxNewTokens:   models.Int(maxTokens),
			Temperature:    models.Float64(temp),
			ReturnFullText: models.Bool(false),
		},
	})
	if err != nil {
		log.Fatalf("Invocation failed: %v", err)
	}

	fmt.Println(resp.GeneratedText())
}

func runBenchmark(ctx context.Context, client *fmdeploy.Client, logger fmdeploy.Logger, endpointName, prompt string, maxTokens int, temp float64, iterations int) {
	if endpointName == "" || prompt == "" {
		log.Fatal("-benchmark requires -endpoint and -prompt")
	}

	runner := benchmark.NewRunner(client,
		benchmark.WithIterations(iterations),
		benchmark.WithLogger(logger),
	)

	result, err := runner.Run(ctx, endpointName, models.InvocationRequest{
		Inputs: prompt,
		Parameters: &models.GenerationParameters{
			MaxNewTokens:   models.Int(maxTokens),
			Temperature:    models.Float64(temp),
			ReturnFullText: models.Bool(false),
		},
	})
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	printResult(endpointName, result)
}

func runSuite(ctx context.Context, client *fmdeploy.Client, logger fmdeploy.Logger, suitePath string) {
	suite, err := config.Load(suitePath)
	if err != nil {
		log.Fatalf("Failed to load suite: %v", err)
	}

	req := models.InvocationRequest{
		Inputs: suite.Prompt,
		Parameters: &models.GenerationParameters{
			MaxNewTokens:   models.Int(suite.MaxNewTokens),
			Temperature:    models.Float64(suite.Temperature),
			ReturnFullText: models.Bool(suite.ReturnFullText),
		},
	}

	for _, variant := range suite.Variants {
		cfg, err := variantDeployConfig(variant, suite.Wait)
		if err != nil {
			log.Fatalf("Variant %s: %v", variant.Name, err)
		}

		fmt.Printf("== %s (%s, %s) ==\n", variant.Name, variant.ModelID, variant.Quantization)

		endpoint, err := client.Deploy(ctx, cfg)
		if err != nil {
			log.Fatalf("Variant %s: deployment failed: %v", variant.Name, err)
		}

		runner := benchmark.NewRunner(client,
			benchmark.WithIterations(suite.Iterations),
			benchmark.WithLogger(logger),
		)
		result, err := runner.Run(ctx, endpoint.Name, req)
		if err != nil {
			log.Fatalf("Variant %s: benchmark failed: %v", variant.Name, err)
		}

		printResult(endpoint.Name, result)

		if suite.Teardown {
			if err := client.DeleteEndpoint(ctx, endpoint.Name); err != nil {
				log.Fatalf("Variant %s: teardown failed: %v", variant.Name, err)
			}
		}
	}
}

func variantDeployConfig(variant config.Variant, wait bool) (fmdeploy.DeployConfig, error) {
	preset, err := fmdeploy.PresetFor(variant.ModelID, fmdeploy.Quantization(variant.Quantization), variant.NumGPUs)
	if err != nil {
		return fmdeploy.DeployConfig{}, err
	}

	cfg := preset.DeployConfig(fmdeploy.DefaultEndpointName(variant.Name), wait)
	if variant.InstanceType != "" {
		cfg.InstanceType = variant.InstanceType
	}
	if variant.ImageURI != "" {
		cfg.ImageURI = variant.ImageURI
	}
	cfg.ArtifactPath = variant.ArtifactPath
	for k, v := range variant.Environment {
		cfg.Environment[k] = v
	}
	return cfg, nil
}

func printResult(endpointName string, result *benchmark.Result) {
	fmt.Printf("\nEndpoint:   %s\n", endpointName)
	fmt.Printf("Samples:    %d\n", len(result.Samples))
	fmt.Printf("Tokens:     %d\n", result.TotalTokens)
	fmt.Printf("Seconds:    %.2f\n", result.TotalSeconds)
	fmt.Printf("Throughput: %.2f tokens/s\n\n", result.TokensPerSecond)
}
