// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/safetycheck/internal/analyzer"
	"github.com/pdiddy/safetycheck/internal/cache"
	"github.com/pdiddy/safetycheck/internal/entity"
	"github.com/pdiddy/safetycheck/internal/provider"
	"github.com/pdiddy/safetycheck/internal/synthesis"
	"github.com/pdiddy/safetycheck/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <substance>",
	Short: "Assess a substance for pregnancy and breastfeeding safety",
	Long: `Check runs the analysis pipeline for one substance. The default basic mode
analyzes the regulatory drug label; --comprehensive gathers evidence from
all sources and synthesizes a single assessment.

Results are cached per substance and mode; use --no-cache to force a fresh
analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	comprehensive, _ := cmd.Flags().GetBool("comprehensive")
	pregnant, _ := cmd.Flags().GetBool("pregnant")
	breastfeeding, _ := cmd.Flags().GetBool("breastfeeding")
	trimester, _ := cmd.Flags().GetString("trimester")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outFile, _ := cmd.Flags().GetString("out")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	query := types.SubstanceQuery{
		Name: args[0],
		Mode: types.ModeBasic,
	}
	if comprehensive {
		query.Mode = types.ModeComprehensive
	}

	if pregnant || breastfeeding {
		mctx := &types.MedicalContext{
			IsPregnant:      pregnant,
			IsBreastfeeding: breastfeeding,
		}
		if trimester != "" {
			t := types.Trimester(trimester)
			if !t.Valid() {
				return fmt.Errorf("invalid trimester %q: use first, second, or third", trimester)
			}
			mctx.Trimester = t
		}
		query.Context = mctx
	} else if trimester != "" {
		return fmt.Errorf("--trimester requires --pregnant")
	}

	cfg := engineConfig()
	svc, closeFn, err := buildService(cfg, noCache)
	if err != nil {
		return err
	}
	defer closeFn()

	verdict, err := svc.Check(context.Background(), query)
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := writeYAMLReport(outFile, verdict); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outFile)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}
	printVerdict(verdict)
	return nil
}

// buildService assembles the pipeline from config. The returned close
// function releases the cache when one was opened.
func buildService(cfg types.EngineConfig, noCache bool) (*analyzer.Service, func(), error) {
	clients := provider.DefaultClients(cfg.Provider)
	backend := &synthesis.ClaudeBackend{Config: cfg.Synthesis}
	basic := &analyzer.BasicAnalyzer{Regulatory: clients.Regulatory, Backend: backend}

	svc := &analyzer.Service{
		Basic: basic,
		Comprehensive: &analyzer.ComprehensiveAnalyzer{
			Clients:   clients,
			Extractor: &entity.Extractor{},
			Backend:   backend,
			Basic:     basic,
		},
		Progress: os.Stderr,
	}

	closeFn := func() {}
	if !noCache {
		store, err := cache.NewStore(cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		layered, err := cache.NewLayered(store, cfg.Cache.MemoryEntries)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		svc.Cache = layered
		closeFn = func() { layered.Close() }
	}
	return svc, closeFn, nil
}

// engineConfig resolves configuration from viper and loaded secrets.
func engineConfig() types.EngineConfig {
	viper.SetDefault("provider.timeout", provider.DefaultTimeout)
	viper.SetDefault("synthesis.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("synthesis.max_retries", 3)
	viper.SetDefault("synthesis.max_tokens", 1024)
	viper.SetDefault("cache.dir", ".safetycheck")
	viper.SetDefault("cache.ttl", cache.DefaultTTL)
	viper.SetDefault("cache.memory_entries", 256)

	return types.EngineConfig{
		Provider: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("provider.timeout"),
				UserAgent: "safetycheck/" + version,
			},
			NCBIAPIKey: secretDefault("ncbi-api-key", viper.GetString("provider.ncbi_api_key")),
		},
		Synthesis: types.SynthesisConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("synthesis.model"),
				APIKey:     secretDefault("anthropic-api-key", viper.GetString("synthesis.api_key")),
				MaxRetries: viper.GetInt("synthesis.max_retries"),
			},
			MaxTokens: viper.GetInt("synthesis.max_tokens"),
		},
		Cache: types.CacheConfig{
			Dir:           viper.GetString("cache.dir"),
			TTL:           viper.GetDuration("cache.ttl"),
			MemoryEntries: viper.GetInt("cache.memory_entries"),
		},
	}
}

// printVerdict writes the human-readable result table.
func printVerdict(v *types.ContextualVerdict) {
	fmt.Printf("Substance:      %s\n", v.SubstanceName)
	if v.PregnancyCategory != "" {
		fmt.Printf("Category:       %s\n", v.PregnancyCategory)
	}
	fmt.Printf("Pregnancy:      %s\n", v.PregnancySafety)
	fmt.Printf("Breastfeeding:  %s\n", v.BreastfeedingSafety)
	fmt.Printf("Confidence:     %.2f (%s)\n", v.Confidence, v.ConfidenceBand())
	if v.Degraded {
		fmt.Println("Note:           degraded result (synthesis provider unavailable)")
	}
	if len(v.SourcesUsed) > 0 {
		fmt.Printf("Sources:        %s\n", strings.Join(v.SourcesUsed, ", "))
	}

	if len(v.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range v.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if v.TrimesterNote != "" {
		fmt.Printf("\nTrimester:      %s\n", v.TrimesterNote)
		for _, f := range v.TrimesterFindings {
			fmt.Printf("  - %s\n", f)
		}
	}
	if v.MilkTransferNote != "" {
		fmt.Printf("\nMilk transfer:  %s\n", v.MilkTransferNote)
	}
	fmt.Printf("\n%s\n", v.Summary)
}

// writeYAMLReport writes the verdict with a generation timestamp.
func writeYAMLReport(path string, v *types.ContextualVerdict) error {
	report := struct {
		GeneratedAt time.Time                `yaml:"generated_at"`
		Result      *types.ContextualVerdict `yaml:"result"`
	}{
		GeneratedAt: time.Now().UTC(),
		Result:      v,
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func init() {
	checkCmd.Flags().Bool("comprehensive", false, "gather evidence from all sources and synthesize")
	checkCmd.Flags().Bool("pregnant", false, "tailor the result for pregnancy")
	checkCmd.Flags().Bool("breastfeeding", false, "tailor the result for breastfeeding")
	checkCmd.Flags().String("trimester", "", "trimester for pregnancy context: first, second, or third")
	checkCmd.Flags().Bool("json", false, "output the result as JSON")
	checkCmd.Flags().String("out", "", "write a YAML report to this file")
	checkCmd.Flags().Bool("no-cache", false, "bypass the verdict cache")

	rootCmd.AddCommand(checkCmd)
}
