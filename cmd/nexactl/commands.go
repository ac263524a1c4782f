package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nexa/internal/llm"
	"nexa/internal/pipeline"
	"nexa/internal/types"
)

var (
	optionFlag     string
	ideaFlag       string
	refinementFile string
	specFile       string
)

var refineCmd = &cobra.Command{
	Use:   "refine <idea>",
	Short: "Refine a raw idea into four concepts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := pipe.Refine(stageContext(cmd), types.RefineIn{Idea: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), out.RefinementData)
	},
}

var chooseCmd = &cobra.Command{
	Use:   "choose",
	Short: "Map a concept onto a product spec without calling the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := specInput()
		if err != nil {
			return err
		}
		out, err := pipeline.ChooseOption(in)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), out)
	},
}

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Build a validated product spec for one refined concept",
	Example: `  nexactl refine "a fitness guide for new moms" > refinement.json
  nexactl spec --option B --refinement refinement.json --idea "a fitness guide for new moms"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := specInput()
		if err != nil {
			return err
		}
		out, err := pipe.BuildSpec(stageContext(cmd), in)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), out)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the full guide from a product spec",
	RunE: func(cmd *cobra.Command, args []string) error {
		if specFile == "" {
			return fmt.Errorf("--spec is required")
		}
		spec, err := readSpec(specFile)
		if err != nil {
			return err
		}
		out, err := pipe.Generate(stageContext(cmd), types.GenerateIn{Spec: spec})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), out.ProductDocument)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <idea>",
	Short: "Run refine, spec and generate in sequence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := stageContext(cmd)
		idea := strings.Join(args, " ")
		ref, err := pipe.Refine(ctx, types.RefineIn{Idea: idea})
		if err != nil {
			return err
		}
		spec, err := pipe.BuildSpec(ctx, types.SpecIn{
			SelectedOption: strings.ToUpper(optionFlag),
			OriginalIdea:   idea,
			Refinement:     &ref.RefinementData,
		})
		if err != nil {
			return err
		}
		doc, err := pipe.Generate(ctx, types.GenerateIn{Spec: &spec.ProductSpec})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), runResult{
			Refinement: ref.RefinementData,
			Spec:       spec,
			Document:   doc.ProductDocument,
		})
	},
}

type runResult struct {
	Refinement types.RefinementData  `json:"refinement"`
	Spec       types.SpecOut         `json:"spec"`
	Document   types.ProductDocument `json:"document"`
}

func init() {
	for _, c := range []*cobra.Command{chooseCmd, specCmd} {
		c.Flags().StringVar(&optionFlag, "option", "", "selected concept letter (A-D)")
		c.Flags().StringVar(&ideaFlag, "idea", "", "the original idea")
		c.Flags().StringVar(&refinementFile, "refinement", "", "refinement JSON file, - for stdin")
		_ = c.MarkFlagRequired("option")
		_ = c.MarkFlagRequired("refinement")
	}
	generateCmd.Flags().StringVar(&specFile, "spec", "", "product spec JSON file (a spec command result or a bare product_spec), - for stdin")
	runCmd.Flags().StringVar(&optionFlag, "option", "A", "concept letter to build")
}

func stageContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if showPrompts {
		ctx = llm.ContextWithHook(ctx, promptPrinter{w: cmd.ErrOrStderr()})
	}
	return ctx
}

// promptPrinter echoes model traffic for debugging prompts.
type promptPrinter struct{ w io.Writer }

func (p promptPrinter) Before(_ context.Context, phase, prompt string) {
	fmt.Fprintf(p.w, "----- %s prompt -----\n%s\n", phase, prompt)
}

func (p promptPrinter) After(_ context.Context, phase, response string, err error) {
	if err != nil {
		fmt.Fprintf(p.w, "----- %s error -----\n%v\n", phase, err)
		return
	}
	fmt.Fprintf(p.w, "----- %s response -----\n%s\n", phase, response)
}

func specInput() (types.SpecIn, error) {
	raw, err := readInput(refinementFile)
	if err != nil {
		return types.SpecIn{}, err
	}
	var ref types.RefinementData
	if err := json.Unmarshal(raw, &ref); err != nil {
		return types.SpecIn{}, fmt.Errorf("decode refinement %s: %w", refinementFile, err)
	}
	return types.SpecIn{
		SelectedOption: strings.ToUpper(strings.TrimSpace(optionFlag)),
		OriginalIdea:   ideaFlag,
		Refinement:     &ref,
	}, nil
}

// readSpec accepts either a full spec result or a bare product_spec object.
func readSpec(path string) (*types.ProductSpec, error) {
	raw, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var wrapped types.SpecOut
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode spec %s: %w", path, err)
	}
	if wrapped.ProductSpec.Title != "" {
		return &wrapped.ProductSpec, nil
	}
	var spec types.ProductSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("decode spec %s: %w", path, err)
	}
	return &spec, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
