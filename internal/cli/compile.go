package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/svclabs/swaggersvc/internal/build"
	"github.com/svclabs/swaggersvc/internal/descr"
	"github.com/svclabs/swaggersvc/internal/export"
	"github.com/svclabs/swaggersvc/internal/model"
)

var validate = validator.New()

// CompileConfig captures all inputs that influence the compile command
// after merging defaults, config file values, and CLI overrides.
type CompileConfig struct {
	Input           string   `yaml:"input" validate:"required"`
	BaseURL         string   `yaml:"baseUrl" validate:"omitempty,url"`
	Out             string   `yaml:"out"`
	Format          string   `yaml:"format" validate:"omitempty,oneof=json openapi go"`
	Package         string   `yaml:"package"`
	DelayMS         int      `yaml:"delayMs" validate:"gte=0"`
	ResponseClasses []string `yaml:"responseClasses"`
	ConfigPath      string   `yaml:"-"`
	Verbose         bool     `yaml:"verbose"`
}

func defaultCompileConfig() CompileConfig {
	return CompileConfig{Format: "json"}
}

var compileRunner = runCompile

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile an API description into a normalized service model",
		Long: "Compile an API description (resource listing plus declarations) into a " +
			"normalized service model. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swaggersvc compile --input http://petstore.example.com/api-docs --out model.json
  swaggersvc --config config.yaml compile --format openapi`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCompileConfig(cmd)
			if err != nil {
				return err
			}
			return compileRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL of the resource-listing document")
	flags.String("base-url", "", "Override the base URL declared by the description")
	flags.String("out", "", "Output file (stdout when omitted)")
	flags.String("format", "", "Export format (json|openapi|go); defaults to json")
	flags.String("package", "", "Package name for the go export format")
	flags.Int("delay", 0, "Delay in milliseconds between declaration fetches")
	flags.StringSlice("response-class", nil, "Force an operation's response class, as operation=decoder (repeatable)")

	return cmd
}

func resolveCompileConfig(cmd *cobra.Command) (*CompileConfig, error) {
	cfg := defaultCompileConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyCompileConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyCompileFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		cfg.Verbose = true
	}

	cfg.normalize()
	if err := cfg.validateConfig(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyCompileConfigFromFile(cfg *CompileConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("compile: read config %s: %v", path, err))
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return newUsageError(fmt.Sprintf("compile: parse config %s: %v", path, err))
	}
	return nil
}

func applyCompileFlagOverrides(flags *pflag.FlagSet, cfg *CompileConfig) error {
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("base-url") {
		value, err := flags.GetString("base-url")
		if err != nil {
			return err
		}
		cfg.BaseURL = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
	}
	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = strings.TrimSpace(value)
	}
	if flags.Changed("package") {
		value, err := flags.GetString("package")
		if err != nil {
			return err
		}
		cfg.Package = strings.TrimSpace(value)
	}
	if flags.Changed("delay") {
		value, err := flags.GetInt("delay")
		if err != nil {
			return err
		}
		cfg.DelayMS = value
	}
	if flags.Changed("response-class") {
		value, err := flags.GetStringSlice("response-class")
		if err != nil {
			return err
		}
		cfg.ResponseClasses = value
	}
	return nil
}

func (c *CompileConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Out = strings.TrimSpace(c.Out)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Package = strings.TrimSpace(c.Package)
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c *CompileConfig) validateConfig() error {
	if c.Input == "" {
		return newUsageError("compile: --input is required (set via flag or config file)")
	}
	if err := validate.Struct(c); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) && len(valErrs) > 0 {
			return newUsageError(fmt.Sprintf("compile: invalid %s: failed %q constraint", strings.ToLower(valErrs[0].Field()), valErrs[0].Tag()))
		}
		return err
	}
	if _, err := c.overrides(); err != nil {
		return err
	}
	return nil
}

// overrides parses the operation=decoder pairs.
func (c *CompileConfig) overrides() (map[string]string, error) {
	out := make(map[string]string, len(c.ResponseClasses))
	for _, pair := range c.ResponseClasses {
		op, class, ok := strings.Cut(pair, "=")
		op, class = strings.TrimSpace(op), strings.TrimSpace(class)
		if !ok || op == "" || class == "" {
			return nil, newUsageError(fmt.Sprintf("compile: invalid --response-class %q (expected operation=decoder)", pair))
		}
		out[op] = class
	}
	return out, nil
}

func runCompile(ctx context.Context, cfg *CompileConfig) error {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	loader := descr.NewLoader(
		descr.WithDelay(time.Duration(cfg.DelayMS)*time.Millisecond),
		descr.WithLogger(logger),
	)

	opts := []build.Option{build.WithLogger(logger)}
	if cfg.BaseURL != "" {
		opts = append(opts, build.WithBaseURL(cfg.BaseURL))
	}
	overrides, err := cfg.overrides()
	if err != nil {
		return err
	}
	for op, class := range overrides {
		opts = append(opts, build.WithResponseClass(op, class))
	}

	sm, err := build.Compile(ctx, loader, cfg.Input, opts...)
	if err != nil {
		var be *model.BuildError
		if errors.As(err, &be) {
			msg := fmt.Sprintf("compile: %s", be.Message)
			if be.Document != "" {
				msg = fmt.Sprintf("%s\nDocument: %s", msg, be.Document)
			}
			return newUsageError(msg)
		}
		return err
	}

	var out []byte
	switch cfg.Format {
	case "json":
		out, err = export.JSON(sm)
	case "openapi":
		var doc any
		doc, err = export.OpenAPI(sm)
		if err == nil {
			out, err = json.MarshalIndent(doc, "", "  ")
		}
	case "go":
		out, err = export.GoSource(sm, cfg.Package)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", cfg.Format, err)
	}

	if cfg.Out == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	if err := os.WriteFile(cfg.Out, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Out, err)
	}
	logger.Info("service model exported",
		slog.String("out", cfg.Out),
		slog.String("format", cfg.Format),
		slog.Int("operations", len(sm.Operations)))
	return nil
}
